package ports

import (
	"context"
	"errors"
	"time"

	"github.com/FeroHriadel/tripiabackend/domain/events"
)

// EventPublisher sends envelopes to the event bus. A nil error means every
// envelope was accepted.
type EventPublisher interface {
	Publish(ctx context.Context, envelopes ...events.Envelope) error
}

// OutboxStore persists cascade events until they are acknowledged.
type OutboxStore interface {
	// Enqueue stores entries whose ID is not in the outbox yet and returns
	// every entry as it is stored. An existing row wins over a new one.
	Enqueue(ctx context.Context, entries ...events.OutboxEntry) ([]events.OutboxEntry, error)
	Get(ctx context.Context, eventID string) (*events.OutboxEntry, error)
	MarkPublished(ctx context.Context, eventIDs ...string) error
	Pending(ctx context.Context, now time.Time, limit int) ([]events.OutboxEntry, error)
	Update(ctx context.Context, entry events.OutboxEntry) error
}

// IdempotencyStore records which subscriber already processed which event.
// A claim is held under a lease until it is completed or released, so a run
// that died without releasing it can be taken over once the lease expires.
type IdempotencyStore interface {
	// Claim returns false when scope completed key or holds a live lease on it.
	Claim(ctx context.Context, scope, key string) (bool, error)
	Complete(ctx context.Context, scope, key string) error
	Release(ctx context.Context, scope, key string) error
}

// ErrConnectionGone reports that a WebSocket connection no longer exists.
var ErrConnectionGone = errors.New("connection gone")

// Notifier pushes messages to WebSocket connections.
type Notifier interface {
	Send(ctx context.Context, connectionID string, payload []byte) error
}
