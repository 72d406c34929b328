package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// UserHandler handles user profile requests
type UserHandler struct {
	responder
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{responder: newResponder(errs, logger), users: users}
}

// BatchUsersRequest is the body of POST /users/batch
type BatchUsersRequest struct {
	Emails []string `json:"emails"`
}

// GetUser handles GET /users?email=. Without an email the caller's own
// profile is returned.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		caller, err := callerFrom(r)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		email = caller.Email
	}

	user, err := h.users.Get(r.Context(), email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}

// BatchGetUsers handles POST /users/batch
func (h *UserHandler) BatchGetUsers(w http.ResponseWriter, r *http.Request) {
	var req BatchUsersRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	users, err := h.users.BatchGet(r.Context(), req.Emails)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, users)
}

// UpdateUser handles PUT /users
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req services.UpdateUserInput
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}
