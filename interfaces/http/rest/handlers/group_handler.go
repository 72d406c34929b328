package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands"
	"github.com/FeroHriadel/tripiabackend/application/commands/bus"
	"github.com/FeroHriadel/tripiabackend/application/services"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	responder
	groups     *services.GroupService
	commandBus *bus.CommandBus
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups *services.GroupService, commandBus *bus.CommandBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{responder: newResponder(errs, logger), groups: groups, commandBus: commandBus}
}

// CreateGroupRequest is the body of POST /groups
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// BatchGroupsRequest is the body of POST /groups/batch
type BatchGroupsRequest struct {
	IDs []string `json:"ids"`
}

// CreateGroup handles POST /groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req CreateGroupRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	group, err := h.groups.Create(r.Context(), caller, req.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, group)
}

// GetGroups handles GET /groups?id= and GET /groups?email=. The email form
// always lists the caller's own groups.
func (h *GroupHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("id") != "":
		group, err := h.groups.Get(r.Context(), q.Get("id"))
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, group)

	case q.Get("email") != "":
		caller, err := callerFrom(r)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		groups, err := h.groups.ListForUser(r.Context(), caller.Email)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, groups)

	default:
		h.respondError(w, r, pkgerrors.NewValidationError("Invalid query parameters"))
	}
}

// BatchGetGroups handles POST /groups/batch
func (h *GroupHandler) BatchGetGroups(w http.ResponseWriter, r *http.Request) {
	var req BatchGroupsRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	groups, err := h.groups.BatchGet(r.Context(), req.IDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, groups)
}

// UpdateGroup handles PUT /groups/{groupID}
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req services.UpdateGroupInput
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	group, err := h.groups.Update(r.Context(), caller, chi.URLParam(r, "groupID"), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, group)
}

// DeleteGroup handles DELETE /groups/{groupID}
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.DeleteGroupCommand{
		GroupID:     chi.URLParam(r, "groupID"),
		RequestedBy: caller.Email,
		IsAdmin:     caller.IsAdmin,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, _ := result.(*commands.DeleteResult)
	if res == nil {
		h.respondError(w, r, pkgerrors.NewInternalError("unexpected delete result"))
		return
	}
	h.respondJSON(w, http.StatusOK, deleted{Message: "Deleted", ID: res.ID, Dispatched: res.Dispatched})
}
