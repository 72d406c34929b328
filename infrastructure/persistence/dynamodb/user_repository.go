package dynamodb

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
)

// UserRepository stores user profiles keyed by lower-cased email.
type UserRepository struct {
	table  *table[entities.User]
	logger *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		table:  newTable[entities.User](client, tableName, "email", "User", nil, logger),
		logger: logger,
	}
}

func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	if err := r.table.put(ctx, user); err != nil {
		return err
	}
	r.logger.Debug("User saved", zap.String("email", user.Email))
	return nil
}

// Create writes a new user and fails with a conflict when the email is
// already registered.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := r.table.putIfAbsent(ctx, user, "User already exists"); err != nil {
		return err
	}
	r.logger.Debug("User created", zap.String("email", user.Email))
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.table.get(ctx, strings.ToLower(email))
}

func (r *UserRepository) FindByEmails(ctx context.Context, emails []string) ([]*entities.User, error) {
	lower := make([]string, 0, len(emails))
	for _, e := range emails {
		lower = append(lower, strings.ToLower(e))
	}
	return r.table.batchGet(ctx, lower)
}

// FavoriteTripsRepository stores bookmarked trips keyed by email.
type FavoriteTripsRepository struct {
	table  *table[entities.FavoriteTrips]
	logger *zap.Logger
}

var _ ports.FavoriteTripsRepository = (*FavoriteTripsRepository)(nil)

func NewFavoriteTripsRepository(client DynamoDBAPI, tableName string, logger *zap.Logger) *FavoriteTripsRepository {
	return &FavoriteTripsRepository{
		table:  newTable[entities.FavoriteTrips](client, tableName, "email", "Favorite trips", nil, logger),
		logger: logger,
	}
}

func (r *FavoriteTripsRepository) Save(ctx context.Context, favorites *entities.FavoriteTrips) error {
	if err := r.table.put(ctx, favorites); err != nil {
		return err
	}
	r.logger.Debug("Favorite trips saved", zap.String("email", favorites.Email), zap.Int("count", len(favorites.TripIDs)))
	return nil
}

func (r *FavoriteTripsRepository) FindByEmail(ctx context.Context, email string) (*entities.FavoriteTrips, error) {
	return r.table.get(ctx, strings.ToLower(email))
}
