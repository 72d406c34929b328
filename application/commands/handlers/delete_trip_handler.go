package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DeleteTripHandler handles trip deletion commands
type DeleteTripHandler struct {
	tripRepo   ports.TripRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewDeleteTripHandler creates a new delete trip handler
func NewDeleteTripHandler(tripRepo ports.TripRepository, dispatcher EventDispatcher, logger *zap.Logger) *DeleteTripHandler {
	return &DeleteTripHandler{
		tripRepo:   tripRepo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle deletes the trip row together with its cascade events, then tries
// to publish them. Comment and image cleanup happen in the subscribers.
func (h *DeleteTripHandler) Handle(ctx context.Context, cmd commands.DeleteTripCommand) (*commands.DeleteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	trip, err := h.tripRepo.FindByID(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.CanBeModifiedBy(cmd.RequestedBy, cmd.IsAdmin) {
		return nil, pkgerrors.NewForbiddenError("You are not authorized to delete this trip")
	}

	cascade := make([]events.Event, 0, 2)
	if trip.Image != "" {
		cascade = append(cascade, events.DeleteImages{Keys: []string{trip.Image}})
	}
	cascade = append(cascade, events.DeleteCommentsForTrip{TripID: trip.ID})

	envelopes, err := events.NewEnvelopes(h.now(), cascade...)
	if err != nil {
		return nil, fmt.Errorf("failed to build cascade events: %w", err)
	}

	if err := h.tripRepo.Delete(ctx, trip.ID, envelopes...); err != nil {
		return nil, err
	}

	dispatched := h.dispatcher.Dispatch(ctx, envelopes...)
	if !dispatched.Complete() {
		h.logger.Warn("Trip deleted, cascade deferred to outbox",
			zap.String("tripID", trip.ID),
			zap.Strings("deferred", dispatched.Deferred),
		)
	}

	h.logger.Info("Trip deleted",
		zap.String("tripID", trip.ID),
		zap.String("requestedBy", cmd.RequestedBy),
	)
	return &commands.DeleteResult{ID: trip.ID, Dispatched: dispatched}, nil
}
