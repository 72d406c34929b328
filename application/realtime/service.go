// Package realtime implements the group post feed delivered over WebSocket
// connections.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/observability"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// Outgoing message actions.
const (
	ActionPostCreated = "postCreated"
	ActionPostDelete  = "postDelete"
	ActionPosts       = "posts"
)

// EventDispatcher publishes committed events on a best-effort basis.
type EventDispatcher interface {
	Dispatch(ctx context.Context, envelopes ...events.Envelope) appevents.Dispatched
}

// CreatePostInput is a new post sent over the socket.
type CreatePostInput struct {
	PostedBy string   `json:"postedBy" validate:"required"`
	GroupID  string   `json:"groupId" validate:"required"`
	Body     string   `json:"body" validate:"required"`
	Images   []string `json:"images"`
}

// DeletePostInput asks to remove a post. ConnectionID is the requesting
// connection, which is told when the delete fails.
type DeletePostInput struct {
	GroupID      string `json:"groupId" validate:"required"`
	PostID       string `json:"postId" validate:"required"`
	Email        string `json:"-"`
	IsAdmin      bool   `json:"-"`
	ConnectionID string `json:"-"`
}

// BroadcastReport counts per-connection delivery outcomes. Stale
// connections were gone and have been removed.
type BroadcastReport struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Stale     int `json:"stale"`
}

// PostCreated is the result of CreatePost.
type PostCreated struct {
	Post      *entities.Post  `json:"post"`
	Broadcast BroadcastReport `json:"broadcast"`
}

// PostDeleted is the result of DeletePost.
type PostDeleted struct {
	ID         string               `json:"id"`
	Broadcast  BroadcastReport      `json:"broadcast"`
	Dispatched appevents.Dispatched `json:"dispatched"`
}

// Service manages connections and fans posts out to them.
type Service struct {
	connections ports.ConnectionRepository
	posts       ports.PostRepository
	groups      ports.GroupRepository
	notifier    ports.Notifier
	dispatcher  EventDispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new realtime service
func NewService(
	connections ports.ConnectionRepository,
	posts ports.PostRepository,
	groups ports.GroupRepository,
	notifier ports.Notifier,
	dispatcher EventDispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		connections: connections,
		posts:       posts,
		groups:      groups,
		notifier:    notifier,
		dispatcher:  dispatcher,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Connect subscribes connectionID to the feed of groupID. Only members may
// subscribe.
func (s *Service) Connect(ctx context.Context, connectionID, groupID, email string) (*entities.Connection, error) {
	if connectionID == "" {
		return nil, pkgerrors.NewValidationError("connectionId is required")
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, pkgerrors.NewValidationError("groupId is required")
	}

	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(email) {
		return nil, pkgerrors.NewForbiddenError("You are not a member of this group")
	}

	conn := entities.NewConnection(connectionID, groupID, email, s.now())
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("Connection opened",
		zap.String("connectionID", connectionID),
		zap.String("groupID", groupID),
		zap.String("email", conn.Email),
	)
	return conn, nil
}

// Disconnect forgets connectionID. Unknown connections are ignored.
func (s *Service) Disconnect(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return pkgerrors.NewValidationError("connectionId is required")
	}
	if err := s.connections.Delete(ctx, connectionID); err != nil {
		return err
	}
	s.logger.Info("Connection closed", zap.String("connectionID", connectionID))
	return nil
}

// CreatePost stores a post and pushes it to every connection of the group.
// Delivery failures do not fail the call.
func (s *Service) CreatePost(ctx context.Context, caller string, isAdmin bool, in CreatePostInput) (*PostCreated, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !isAdmin && !strings.EqualFold(in.PostedBy, caller) {
		return nil, pkgerrors.NewForbiddenError("You cannot post on behalf of another user")
	}

	group, err := s.groups.FindByID(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !group.IsMember(in.PostedBy) {
		return nil, pkgerrors.NewForbiddenError("You are not a member of this group")
	}

	conns, err := s.connections.ListByGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	post := entities.NewPost(in.GroupID, in.PostedBy, in.Body, utils.NonEmpty(in.Images), s.now())
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}

	report := s.broadcast(ctx, ActionPostCreated, conns, map[string]interface{}{
		"action": ActionPostCreated,
		"post":   post,
	})

	s.logger.Info("Post created",
		zap.String("postID", post.ID),
		zap.String("groupID", post.GroupID),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
	)
	return &PostCreated{Post: post, Broadcast: report}, nil
}

// DeletePost removes a post, tells the group, and queues removal of its
// images. When anything fails before the broadcast the requesting
// connection is told so.
func (s *Service) DeletePost(ctx context.Context, in DeletePostInput) (*PostDeleted, error) {
	result, err := s.deletePost(ctx, in)
	if err != nil && in.ConnectionID != "" {
		s.notifyFailure(ctx, in.ConnectionID)
	}
	return result, err
}

func (s *Service) deletePost(ctx context.Context, in DeletePostInput) (*PostDeleted, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.GroupID != in.GroupID {
		return nil, pkgerrors.NewNotFoundError("Post")
	}
	if !post.CanBeDeletedBy(in.Email, in.IsAdmin) {
		return nil, pkgerrors.NewForbiddenError("")
	}

	conns, err := s.connections.ListByGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	var envelopes []events.Envelope
	if images := utils.NonEmpty(post.Images); len(images) > 0 {
		envelopes, err = events.NewEnvelopes(s.now(), events.DeleteImages{Keys: images})
		if err != nil {
			return nil, fmt.Errorf("failed to build cascade events: %w", err)
		}
	}

	if err := s.posts.Delete(ctx, post.ID, envelopes...); err != nil {
		return nil, err
	}

	report := s.broadcast(ctx, ActionPostDelete, conns, map[string]interface{}{
		"action": ActionPostDelete,
		"ok":     true,
		"id":     post.ID,
	})

	result := &PostDeleted{ID: post.ID, Broadcast: report}
	if len(envelopes) > 0 {
		result.Dispatched = s.dispatcher.Dispatch(ctx, envelopes...)
	}

	s.logger.Info("Post deleted",
		zap.String("postID", post.ID),
		zap.String("groupID", post.GroupID),
		zap.String("requestedBy", in.Email),
	)
	return result, nil
}

// ListPosts returns the posts of groupID, newest first.
func (s *Service) ListPosts(ctx context.Context, groupID string) ([]*entities.Post, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, pkgerrors.NewValidationError("groupId is required")
	}

	posts, err := s.posts.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt > posts[j].CreatedAt
	})
	return posts, nil
}

// PushPosts sends the posts of groupID to a single connection.
func (s *Service) PushPosts(ctx context.Context, connectionID, groupID string) ([]*entities.Post, error) {
	posts, err := s.ListPosts(ctx, groupID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{"action": ActionPosts, "posts": posts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode posts: %w", err)
	}
	if err := s.notifier.Send(ctx, connectionID, payload); err != nil {
		return nil, err
	}
	return posts, nil
}

// broadcast sends message to every connection concurrently. Connections
// reported gone are removed.
func (s *Service) broadcast(ctx context.Context, action string, conns []*entities.Connection, message interface{}) BroadcastReport {
	var report BroadcastReport
	if len(conns) == 0 {
		return report
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Error("Failed to encode broadcast", zap.Error(err), zap.String("action", action))
		report.Failed = len(conns)
		return report
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, conn := range conns {
		wg.Add(1)
		go func(connectionID string) {
			defer wg.Done()
			err := s.notifier.Send(ctx, connectionID, payload)

			if errors.Is(err, ports.ErrConnectionGone) {
				if delErr := s.connections.Delete(ctx, connectionID); delErr != nil {
					s.logger.Warn("Failed to remove stale connection", zap.Error(delErr), zap.String("connectionID", connectionID))
				}
			} else if err != nil {
				s.logger.Warn("Failed to deliver message",
					zap.Error(err),
					zap.String("connectionID", connectionID),
					zap.String("action", action),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Delivered++
			case errors.Is(err, ports.ErrConnectionGone):
				report.Stale++
			default:
				report.Failed++
			}
		}(conn.ID)
	}
	wg.Wait()

	s.metrics.RecordBroadcast(ctx, action, report.Delivered, report.Failed, report.Stale)
	return report
}

func (s *Service) notifyFailure(ctx context.Context, connectionID string) {
	payload, _ := json.Marshal(map[string]string{
		"action": ActionPostDelete,
		"error":  "Failed to delete post",
	})
	if err := s.notifier.Send(ctx, connectionID, payload); err != nil {
		s.logger.Warn("Failed to notify connection", zap.Error(err), zap.String("connectionID", connectionID))
	}
}
