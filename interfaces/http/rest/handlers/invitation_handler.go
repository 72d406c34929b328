package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/services"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// InvitationHandler handles group invitations
type InvitationHandler struct {
	responder
	invitations *services.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitations *services.InvitationService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{responder: newResponder(errs, logger), invitations: invitations}
}

// CreateInvitation handles POST /invitations
func (h *InvitationHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req services.CreateInvitationInput
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	invitation, err := h.invitations.Create(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, invitation)
}

// GetInvitations handles GET /invitations
func (h *InvitationHandler) GetInvitations(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	invitations, err := h.invitations.ListForCaller(r.Context(), caller)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, invitations)
}

// DeleteInvitation handles DELETE /invitations/{invitationID}
func (h *InvitationHandler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "invitationID")
	if err := h.invitations.Delete(r.Context(), caller, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, deleted{Message: "Deleted", ID: id})
}
