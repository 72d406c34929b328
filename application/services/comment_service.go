package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// CreateCommentInput is the body of a new comment.
type CreateCommentInput struct {
	Body      string `json:"body" validate:"required"`
	By        string `json:"by"`
	Trip      string `json:"trip" validate:"required"`
	CreatedAt string `json:"createdAt" validate:"required"`
	Image     string `json:"image"`
}

// CommentService manages trip comments.
type CommentService struct {
	comments   ports.CommentRepository
	trips      ports.TripRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCommentService creates a new comment service
func NewCommentService(
	comments ports.CommentRepository,
	trips ports.TripRepository,
	dispatcher EventDispatcher,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		comments:   comments,
		trips:      trips,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create adds a comment to an existing trip. Comments are always attributed
// to the caller; admins may post on behalf of someone else.
func (s *CommentService) Create(ctx context.Context, caller Caller, in CreateCommentInput) (*entities.Comment, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	by := caller.Email
	if in.By != "" && !strings.EqualFold(in.By, caller.Email) {
		if !caller.IsAdmin {
			return nil, pkgerrors.NewForbiddenError("You cannot comment on behalf of another user")
		}
		by = in.By
	}
	if by == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	if _, err := s.trips.FindByID(ctx, in.Trip); err != nil {
		return nil, err
	}

	comment := entities.NewComment(by, in.Body, in.Image, in.Trip, in.CreatedAt)
	if err := s.comments.Save(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("Comment created", zap.String("commentID", comment.ID), zap.String("tripID", comment.Trip))
	return comment, nil
}

// Get returns one comment.
func (s *CommentService) Get(ctx context.Context, id string) (*entities.Comment, error) {
	return s.comments.FindByID(ctx, id)
}

// ListByTrip returns one page of a trip's comments.
func (s *CommentService) ListByTrip(ctx context.Context, tripID string, page common.PageRequest) (common.Page[*entities.Comment], error) {
	if strings.TrimSpace(tripID) == "" {
		return common.Page[*entities.Comment]{}, pkgerrors.NewValidationError("Missing tripId")
	}
	return s.comments.ListByTrip(ctx, tripID, page)
}

// Delete removes a comment. The attached image, if any, is handed to the
// delete-images subscriber through the outbox.
func (s *CommentService) Delete(ctx context.Context, caller Caller, id string) (*commands.DeleteResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidationError("Id is required")
	}

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !comment.CanBeDeletedBy(caller.Email, caller.IsAdmin) {
		return nil, pkgerrors.NewForbiddenError("You are not authorized to delete this comment")
	}

	var envelopes []events.Envelope
	if comment.Image != "" {
		envelopes, err = events.NewEnvelopes(s.now(), events.DeleteImages{Keys: []string{comment.Image}})
		if err != nil {
			return nil, fmt.Errorf("failed to build cascade events: %w", err)
		}
	}

	if err := s.comments.Delete(ctx, comment.ID, envelopes...); err != nil {
		return nil, err
	}

	result := &commands.DeleteResult{ID: comment.ID}
	if len(envelopes) > 0 {
		result.Dispatched = s.dispatcher.Dispatch(ctx, envelopes...)
	}

	s.logger.Info("Comment deleted", zap.String("commentID", comment.ID), zap.String("requestedBy", caller.Email))
	return result, nil
}
