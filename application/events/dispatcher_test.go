package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports/mocks"
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

func newEnvelopes(t *testing.T) []events.Envelope {
	t.Helper()
	envs, err := events.NewEnvelopes(time.Now(),
		events.DeleteImages{Keys: []string{"a.png"}},
		events.DeleteCommentsForTrip{TripID: "trip-1"},
	)
	require.NoError(t, err)
	return envs
}

func TestDispatcher_PublishesAndMarks(t *testing.T) {
	// Arrange
	publisher := new(mocks.MockEventPublisher)
	outbox := new(mocks.MockOutboxStore)
	d := NewDispatcher(publisher, outbox, nil, zap.NewNop(), DispatcherConfig{})
	envs := newEnvelopes(t)
	ids := []string{envs[0].ID, envs[1].ID}

	publisher.On("Publish", mock.Anything, envs).Return(nil)
	outbox.On("MarkPublished", mock.Anything, ids).Return(nil)

	// Act
	receipt := d.Dispatch(context.Background(), envs...)

	// Assert
	assert.Equal(t, ids, receipt.Published)
	assert.Empty(t, receipt.Deferred)
	assert.True(t, receipt.Complete())
	publisher.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestDispatcher_PublishFailureIsDeferred(t *testing.T) {
	publisher := new(mocks.MockEventPublisher)
	outbox := new(mocks.MockOutboxStore)
	d := NewDispatcher(publisher, outbox, nil, zap.NewNop(), DispatcherConfig{})
	envs := newEnvelopes(t)

	publisher.On("Publish", mock.Anything, envs).Return(errors.New("bus unavailable"))

	receipt := d.Dispatch(context.Background(), envs...)

	assert.Empty(t, receipt.Published)
	assert.Equal(t, []string{envs[0].ID, envs[1].ID}, receipt.Deferred)
	assert.False(t, receipt.Complete())
	outbox.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything)
}

func TestDispatcher_MarkFailureStillPublished(t *testing.T) {
	publisher := new(mocks.MockEventPublisher)
	outbox := new(mocks.MockOutboxStore)
	d := NewDispatcher(publisher, outbox, nil, zap.NewNop(), DispatcherConfig{})
	envs := newEnvelopes(t)

	publisher.On("Publish", mock.Anything, envs).Return(nil)
	outbox.On("MarkPublished", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	receipt := d.Dispatch(context.Background(), envs...)

	assert.Len(t, receipt.Published, 2)
	assert.True(t, receipt.Complete())
}

func TestDispatcher_EmptyIsNoop(t *testing.T) {
	publisher := new(mocks.MockEventPublisher)
	outbox := new(mocks.MockOutboxStore)
	d := NewDispatcher(publisher, outbox, nil, zap.NewNop(), DispatcherConfig{})

	receipt := d.Dispatch(context.Background())

	assert.True(t, receipt.Complete())
	assert.Empty(t, receipt.Published)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	stored, err := d.Enqueue(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDispatcher_EnqueueUsesGracePeriod(t *testing.T) {
	outbox := new(mocks.MockOutboxStore)
	d := NewDispatcher(new(mocks.MockEventPublisher), outbox, nil, zap.NewNop(), DispatcherConfig{GracePeriod: 30 * time.Second})
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }
	envs := newEnvelopes(t)

	outbox.On("Enqueue", mock.Anything, mock.MatchedBy(func(entries []events.OutboxEntry) bool {
		return len(entries) == 2 &&
			entries[0].Status == events.OutboxPending &&
			entries[0].NextAttemptAt.Equal(fixed.Add(30*time.Second))
	})).Return(nil, nil)

	stored, err := d.Enqueue(context.Background(), envs...)
	require.NoError(t, err)
	assert.Equal(t, envs, stored)
	outbox.AssertExpectations(t)
}

func TestDispatcher_EnqueueReturnsStoredEnvelope(t *testing.T) {
	outbox := new(mocks.MockOutboxStore)
	d := NewDispatcher(new(mocks.MockEventPublisher), outbox, nil, zap.NewNop(), DispatcherConfig{})
	envs := newEnvelopes(t)
	earlier := events.NewOutboxEntry(envs[1], time.Now().Add(-time.Minute), 0)

	outbox.On("Enqueue", mock.Anything, mock.Anything).Return([]events.OutboxEntry{earlier}, nil)

	stored, err := d.Enqueue(context.Background(), envs[0])
	require.NoError(t, err)
	assert.Equal(t, []events.Envelope{envs[1]}, stored)
}
