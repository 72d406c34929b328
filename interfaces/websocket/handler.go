package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/realtime"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

const actionPostCreate = "postCreate"

// Handler serves the WebSocket API routes.
type Handler struct {
	realtime *realtime.Service
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(svc *realtime.Service, logger *zap.Logger) *Handler {
	return &Handler{realtime: svc, logger: logger}
}

// Connect handles $connect. The client names the group feed it subscribes
// to with the groupId query parameter.
func (h *Handler) Connect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := IdentityFrom(req)
	groupID := req.QueryStringParameters["groupId"]

	if _, err := h.realtime.Connect(ctx, req.RequestContext.ConnectionID, groupID, id.Email); err != nil {
		return respondError(h.logger, "$connect", req, err), nil
	}
	return respondText(http.StatusOK, "Connected"), nil
}

// Disconnect handles $disconnect.
func (h *Handler) Disconnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.realtime.Disconnect(ctx, req.RequestContext.ConnectionID); err != nil {
		return respondError(h.logger, "$disconnect", req, err), nil
	}
	return respondText(http.StatusOK, "Disconnected"), nil
}

// Default handles $default, which clients use as a keep-alive.
func (h *Handler) Default(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Debug("WebSocket ping", zap.String("connectionID", req.RequestContext.ConnectionID))
	return respondText(http.StatusOK, "Pong"), nil
}

// PostCreate handles {"action":"postCreate","post":{...}}.
func (h *Handler) PostCreate(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := gjson.Parse(req.Body)
	post := body.Get("post")
	if body.Get("action").String() != actionPostCreate || !post.IsObject() {
		return respondError(h.logger, actionPostCreate, req, pkgerrors.NewValidationError("Invalid action or post data")), nil
	}

	var in realtime.CreatePostInput
	if err := json.Unmarshal([]byte(post.Raw), &in); err != nil {
		return respondError(h.logger, actionPostCreate, req, pkgerrors.NewValidationError("Invalid action or post data").WithCause(err)), nil
	}

	id := IdentityFrom(req)
	created, err := h.realtime.CreatePost(ctx, id.Email, id.IsAdmin, in)
	if err != nil {
		return respondError(h.logger, actionPostCreate, req, err), nil
	}

	return respondJSON(http.StatusCreated, map[string]interface{}{
		"action":  "postCreateResponse",
		"post":    created.Post,
		"ok":      true,
		"message": "Post created successfully",
	}), nil
}

// PostDelete handles {"groupId":"...","postId":"..."}. On failure the
// requesting connection is also told through the socket.
func (h *Handler) PostDelete(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	if connectionID == "" {
		return respondError(h.logger, "postDelete", req, pkgerrors.NewValidationError("Failed to get connectionId")), nil
	}

	var in realtime.DeletePostInput
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
			return respondError(h.logger, "postDelete", req, pkgerrors.NewValidationError("Invalid request body").WithCause(err)), nil
		}
	}

	id := IdentityFrom(req)
	in.Email = id.Email
	in.IsAdmin = id.IsAdmin
	in.ConnectionID = connectionID

	deleted, err := h.realtime.DeletePost(ctx, in)
	if err != nil {
		return respondError(h.logger, "postDelete", req, err), nil
	}

	return respondJSON(http.StatusOK, map[string]interface{}{
		"action": realtime.ActionPostDelete,
		"ok":     true,
		"id":     deleted.ID,
	}), nil
}

// PostGet returns the posts of a group. The group comes from the groupId
// query parameter, or from the message body when sent over an open socket,
// in which case the posts are also pushed to that connection.
func (h *Handler) PostGet(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	groupID := req.QueryStringParameters["groupId"]
	if groupID == "" {
		groupID = gjson.Get(req.Body, "groupId").String()
	}

	push := req.Body != "" && req.RequestContext.ConnectionID != ""

	var (
		posts []*entities.Post
		err   error
	)
	if push {
		posts, err = h.realtime.PushPosts(ctx, req.RequestContext.ConnectionID, groupID)
	} else {
		posts, err = h.realtime.ListPosts(ctx, groupID)
	}
	if err != nil {
		return respondError(h.logger, "postGet", req, err), nil
	}
	if posts == nil {
		posts = []*entities.Post{}
	}

	return respondJSON(http.StatusOK, map[string]interface{}{
		"action": realtime.ActionPosts,
		"posts":  posts,
	}), nil
}
