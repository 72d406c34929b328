package ports

import (
	"context"

	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
)

// Repositories return a NotFound AppError when a single item lookup misses.
// Delete methods that take cascade envelopes persist them to the outbox in the
// same transaction as the delete.

// TripRepository persists trips.
type TripRepository interface {
	Save(ctx context.Context, trip *entities.Trip) error
	FindByID(ctx context.Context, id string) (*entities.Trip, error)
	FindByIDs(ctx context.Context, ids []string) ([]*entities.Trip, error)
	List(ctx context.Context, page common.PageRequest) (common.Page[*entities.Trip], error)
	Search(ctx context.Context, word string, page common.PageRequest) (common.Page[*entities.Trip], error)
	ListByCreator(ctx context.Context, email string) ([]*entities.Trip, error)
	Delete(ctx context.Context, id string, cascade ...events.Envelope) error
}

// CommentRepository persists trip comments.
type CommentRepository interface {
	Save(ctx context.Context, comment *entities.Comment) error
	FindByID(ctx context.Context, id string) (*entities.Comment, error)
	ListByTrip(ctx context.Context, tripID string, page common.PageRequest) (common.Page[*entities.Comment], error)
	AllByTrip(ctx context.Context, tripID string) ([]*entities.Comment, error)
	Delete(ctx context.Context, id string, cascade ...events.Envelope) error
	DeleteBatch(ctx context.Context, ids []string) (BatchDeleteResult, error)
}

// BatchDeleteResult summarises a chunked batch delete.
type BatchDeleteResult struct {
	Requested   int
	Deleted     int
	Batches     int
	Unprocessed []string
}

// GroupRepository persists groups.
type GroupRepository interface {
	Save(ctx context.Context, group *entities.Group, cascade ...events.Envelope) error
	FindByID(ctx context.Context, id string) (*entities.Group, error)
	FindByIDs(ctx context.Context, ids []string) ([]*entities.Group, error)
	Delete(ctx context.Context, id string, cascade ...events.Envelope) error
}

// InvitationRepository persists group invitations.
type InvitationRepository interface {
	Save(ctx context.Context, invitation *entities.Invitation) error
	FindByID(ctx context.Context, id string) (*entities.Invitation, error)
	ListByInvitee(ctx context.Context, email string) ([]*entities.Invitation, error)
	Delete(ctx context.Context, id string) error
}

// PostRepository persists group posts.
type PostRepository interface {
	Save(ctx context.Context, post *entities.Post) error
	FindByID(ctx context.Context, id string) (*entities.Post, error)
	ListByGroup(ctx context.Context, groupID string) ([]*entities.Post, error)
	Delete(ctx context.Context, id string, cascade ...events.Envelope) error
	DeleteBatch(ctx context.Context, ids []string) (BatchDeleteResult, error)
}

// UserRepository persists user profiles keyed by email.
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	Create(ctx context.Context, user *entities.User) error
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]*entities.User, error)
}

// ConnectionRepository tracks live WebSocket connections.
type ConnectionRepository interface {
	Save(ctx context.Context, conn *entities.Connection) error
	Delete(ctx context.Context, connectionID string) error
	ListByGroup(ctx context.Context, groupID string) ([]*entities.Connection, error)
}

// FavoriteTripsRepository persists bookmarked trips.
type FavoriteTripsRepository interface {
	Save(ctx context.Context, favorites *entities.FavoriteTrips) error
	FindByEmail(ctx context.Context, email string) (*entities.FavoriteTrips, error)
}

// CategoryRepository persists trip categories.
type CategoryRepository interface {
	Save(ctx context.Context, category *entities.Category) error
	FindByID(ctx context.Context, id string) (*entities.Category, error)
	FindByName(ctx context.Context, name string) (*entities.Category, error)
	List(ctx context.Context) ([]*entities.Category, error)
	Delete(ctx context.Context, id string) error
}
