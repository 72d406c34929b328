package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, envelopes ...events.Envelope) error {
	args := m.Called(ctx, envelopes)
	return args.Error(0)
}

type MockOutboxStore struct {
	mock.Mock
}

// Enqueue echoes entries back as stored when the first return value is nil.
func (m *MockOutboxStore) Enqueue(ctx context.Context, entries ...events.OutboxEntry) ([]events.OutboxEntry, error) {
	args := m.Called(ctx, entries)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if args.Get(0) == nil {
		return entries, nil
	}
	return args.Get(0).([]events.OutboxEntry), nil
}

func (m *MockOutboxStore) Get(ctx context.Context, eventID string) (*events.OutboxEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*events.OutboxEntry), args.Error(1)
}

func (m *MockOutboxStore) MarkPublished(ctx context.Context, eventIDs ...string) error {
	args := m.Called(ctx, eventIDs)
	return args.Error(0)
}

func (m *MockOutboxStore) Pending(ctx context.Context, now time.Time, limit int) ([]events.OutboxEntry, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]events.OutboxEntry), args.Error(1)
}

func (m *MockOutboxStore) Update(ctx context.Context, entry events.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, scope, key string) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, scope, key string) error {
	args := m.Called(ctx, scope, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, scope, key string) error {
	args := m.Called(ctx, scope, key)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, connectionID string, payload []byte) error {
	args := m.Called(ctx, connectionID, payload)
	return args.Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) DeleteImages(ctx context.Context, keys []string) (ports.ImageDeletion, error) {
	args := m.Called(ctx, keys)
	return args.Get(0).(ports.ImageDeletion), args.Error(1)
}

type MockUserAttributeUpdater struct {
	mock.Mock
}

func (m *MockUserAttributeUpdater) SetNickname(ctx context.Context, userPoolID, username, nickname string) error {
	args := m.Called(ctx, userPoolID, username, nickname)
	return args.Error(0)
}
