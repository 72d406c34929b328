package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// TripService manages trips. Deletion goes through DeleteTripHandler.
type TripService struct {
	trips  ports.TripRepository
	users  ports.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewTripService creates a new trip service
func NewTripService(trips ports.TripRepository, users ports.UserRepository, logger *zap.Logger) *TripService {
	return &TripService{
		trips:  trips,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// Create publishes a new trip owned by the caller. The caller's current
// nickname is copied onto the trip.
func (s *TripService) Create(ctx context.Context, caller Caller, details entities.TripDetails) (*entities.Trip, error) {
	if caller.Email == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	if err := utils.ValidateStruct(details); err != nil {
		return nil, err
	}

	nickname := entities.DefaultNickname(caller.Email)
	user, err := s.users.FindByEmail(ctx, caller.Email)
	switch {
	case err == nil:
		nickname = user.Nickname
	case pkgerrors.IsNotFound(err):
		s.logger.Warn("Trip author has no profile, using default nickname", zap.String("email", caller.Email))
	default:
		return nil, err
	}

	trip, err := entities.NewTrip(details, caller.Email, nickname, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.trips.Save(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.Info("Trip created", zap.String("tripID", trip.ID), zap.String("createdBy", trip.CreatedBy))
	return trip, nil
}

// Get returns one trip.
func (s *TripService) Get(ctx context.Context, id string) (*entities.Trip, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidationError("id is required")
	}
	return s.trips.FindByID(ctx, id)
}

// List returns all trips, most recently updated first.
func (s *TripService) List(ctx context.Context, page common.PageRequest) (common.Page[*entities.Trip], error) {
	return s.trips.List(ctx, page)
}

// Search returns trips whose name, description, keywords or author nickname
// contain word, ignoring case.
func (s *TripService) Search(ctx context.Context, word string, page common.PageRequest) (common.Page[*entities.Trip], error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return s.trips.List(ctx, page)
	}
	return s.trips.Search(ctx, word, page)
}

// ListByCreator returns the trips published by email.
func (s *TripService) ListByCreator(ctx context.Context, email string) ([]*entities.Trip, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.NewValidationError("createdBy is required")
	}
	return s.trips.ListByCreator(ctx, email)
}

// Update overwrites the editable fields of a trip. Only the owner or an
// admin may do so.
func (s *TripService) Update(ctx context.Context, caller Caller, id string, details entities.TripDetails) (*entities.Trip, error) {
	if err := utils.ValidateStruct(details); err != nil {
		return nil, err
	}

	trip, err := s.trips.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !trip.CanBeModifiedBy(caller.Email, caller.IsAdmin) {
		return nil, pkgerrors.NewForbiddenError("You are not authorized to update this trip")
	}

	trip.Apply(details, s.now())
	if err := s.trips.Save(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.Info("Trip updated", zap.String("tripID", trip.ID), zap.String("updatedBy", caller.Email))
	return trip, nil
}

// BatchGet returns the trips with the given ids. Unknown ids are skipped.
func (s *TripService) BatchGet(ctx context.Context, ids []string) ([]*entities.Trip, error) {
	ids = utils.NonEmpty(ids)
	if len(ids) == 0 {
		return []*entities.Trip{}, nil
	}
	return s.trips.FindByIDs(ctx, ids)
}
