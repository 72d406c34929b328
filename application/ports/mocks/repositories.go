// Package mocks provides testify doubles for the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
)

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Save(ctx context.Context, trip *entities.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripRepository) FindByID(ctx context.Context, id string) (*entities.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Trip), args.Error(1)
}

func (m *MockTripRepository) FindByIDs(ctx context.Context, ids []string) ([]*entities.Trip, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Trip), args.Error(1)
}

func (m *MockTripRepository) List(ctx context.Context, page common.PageRequest) (common.Page[*entities.Trip], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(common.Page[*entities.Trip]), args.Error(1)
}

func (m *MockTripRepository) Search(ctx context.Context, word string, page common.PageRequest) (common.Page[*entities.Trip], error) {
	args := m.Called(ctx, word, page)
	return args.Get(0).(common.Page[*entities.Trip]), args.Error(1)
}

func (m *MockTripRepository) ListByCreator(ctx context.Context, email string) ([]*entities.Trip, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]*entities.Trip), args.Error(1)
}

func (m *MockTripRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Save(ctx context.Context, comment *entities.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) FindByID(ctx context.Context, id string) (*entities.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByTrip(ctx context.Context, tripID string, page common.PageRequest) (common.Page[*entities.Comment], error) {
	args := m.Called(ctx, tripID, page)
	return args.Get(0).(common.Page[*entities.Comment]), args.Error(1)
}

func (m *MockCommentRepository) AllByTrip(ctx context.Context, tripID string) ([]*entities.Comment, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]*entities.Comment), args.Error(1)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

func (m *MockCommentRepository) DeleteBatch(ctx context.Context, ids []string) (ports.BatchDeleteResult, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(ports.BatchDeleteResult), args.Error(1)
}

type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Save(ctx context.Context, group *entities.Group, cascade ...events.Envelope) error {
	args := m.Called(ctx, group, cascade)
	return args.Error(0)
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id string) (*entities.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Group), args.Error(1)
}

func (m *MockGroupRepository) FindByIDs(ctx context.Context, ids []string) ([]*entities.Group, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Group), args.Error(1)
}

func (m *MockGroupRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Save(ctx context.Context, invitation *entities.Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func (m *MockInvitationRepository) FindByID(ctx context.Context, id string) (*entities.Invitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) ListByInvitee(ctx context.Context, email string) ([]*entities.Invitation, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]*entities.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Save(ctx context.Context, post *entities.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) FindByID(ctx context.Context, id string) (*entities.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Post), args.Error(1)
}

func (m *MockPostRepository) ListByGroup(ctx context.Context, groupID string) ([]*entities.Post, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]*entities.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id string, cascade ...events.Envelope) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

func (m *MockPostRepository) DeleteBatch(ctx context.Context, ids []string) (ports.BatchDeleteResult, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(ports.BatchDeleteResult), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmails(ctx context.Context, emails []string) ([]*entities.User, error) {
	args := m.Called(ctx, emails)
	return args.Get(0).([]*entities.User), args.Error(1)
}

type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *entities.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockConnectionRepository) ListByGroup(ctx context.Context, groupID string) ([]*entities.Connection, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]*entities.Connection), args.Error(1)
}

type MockFavoriteTripsRepository struct {
	mock.Mock
}

func (m *MockFavoriteTripsRepository) Save(ctx context.Context, favorites *entities.FavoriteTrips) error {
	args := m.Called(ctx, favorites)
	return args.Error(0)
}

func (m *MockFavoriteTripsRepository) FindByEmail(ctx context.Context, email string) (*entities.FavoriteTrips, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FavoriteTrips), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *entities.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id string) (*entities.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByName(ctx context.Context, name string) (*entities.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*entities.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.Category), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
