package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// OutboxRequeuer revives dead-lettered outbox entries.
type OutboxRequeuer interface {
	Requeue(ctx context.Context, eventID string) (*events.OutboxEntry, error)
}

// AdminHandler serves operator endpoints
type AdminHandler struct {
	responder
	outbox OutboxRequeuer
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(outbox OutboxRequeuer, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{responder: newResponder(errs, logger), outbox: outbox}
}

// RequeueOutboxEntry handles POST /admin/outbox/{id}/requeue
func (h *AdminHandler) RequeueOutboxEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !caller.IsAdmin {
		h.respondError(w, r, pkgerrors.NewForbiddenError(""))
		return
	}

	entry, err := h.outbox.Requeue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info("Outbox entry requeued by admin",
		zap.String("eventID", entry.Envelope.ID),
		zap.String("admin", caller.Email),
	)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       entry.Envelope.ID,
		"status":   entry.Status,
		"attempts": entry.Attempts,
	})
}
