package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// FavoriteTripsService manages bookmarked trips.
type FavoriteTripsService struct {
	favorites ports.FavoriteTripsRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewFavoriteTripsService creates a new favorite trips service
func NewFavoriteTripsService(favorites ports.FavoriteTripsRepository, logger *zap.Logger) *FavoriteTripsService {
	return &FavoriteTripsService{
		favorites: favorites,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the favorites of email. A user who never saved any gets an
// empty list.
func (s *FavoriteTripsService) Get(ctx context.Context, email string) (*entities.FavoriteTrips, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.NewValidationError("Missing or badly encoded email")
	}

	favorites, err := s.favorites.FindByEmail(ctx, email)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return entities.NewFavoriteTrips(email, nil, s.now()), nil
		}
		return nil, err
	}
	return favorites, nil
}

// Set replaces the caller's favorites with tripIDs.
func (s *FavoriteTripsService) Set(ctx context.Context, caller Caller, tripIDs []string) (*entities.FavoriteTrips, error) {
	if caller.Email == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	if tripIDs == nil {
		return nil, pkgerrors.NewValidationError("tripIds is required")
	}

	favorites := entities.NewFavoriteTrips(caller.Email, utils.NonEmpty(tripIDs), s.now())
	if err := s.favorites.Save(ctx, favorites); err != nil {
		return nil, err
	}

	s.logger.Debug("Favorite trips saved", zap.String("email", favorites.Email), zap.Int("count", len(favorites.TripIDs)))
	return favorites, nil
}
