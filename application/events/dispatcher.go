package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/observability"
)

// Dispatched is the receipt of a best-effort dispatch. Deferred events stay
// in the outbox and are republished by the outbox dispatcher.
type Dispatched struct {
	Published []string `json:"published"`
	Deferred  []string `json:"deferred"`
}

// Complete reports whether every event reached the bus.
func (d Dispatched) Complete() bool {
	return len(d.Deferred) == 0
}

// DispatcherConfig tunes the dispatcher.
type DispatcherConfig struct {
	PublishTimeout time.Duration
	GracePeriod    time.Duration
}

// Dispatcher publishes cascade events right after the change that caused
// them is committed. It never fails the caller.
type Dispatcher struct {
	publisher ports.EventPublisher
	outbox    ports.OutboxStore
	metrics   *observability.Metrics
	logger    *zap.Logger
	config    DispatcherConfig
	now       func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	publisher ports.EventPublisher,
	outbox ports.OutboxStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
	config DispatcherConfig,
) *Dispatcher {
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 2 * time.Second
	}
	return &Dispatcher{
		publisher: publisher,
		outbox:    outbox,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Enqueue writes envelopes to the outbox on their own, for callers that have
// no transactional write to attach them to. It returns the envelopes as the
// outbox holds them, which for a re-emitted ID is the first version written.
func (d *Dispatcher) Enqueue(ctx context.Context, envelopes ...events.Envelope) ([]events.Envelope, error) {
	if len(envelopes) == 0 {
		return nil, nil
	}
	stored, err := d.outbox.Enqueue(ctx, d.OutboxEntries(envelopes...)...)
	if err != nil {
		return nil, err
	}
	out := make([]events.Envelope, 0, len(stored))
	for _, entry := range stored {
		out = append(out, entry.Envelope)
	}
	return out, nil
}

// OutboxEntries builds pending outbox entries for envelopes.
func (d *Dispatcher) OutboxEntries(envelopes ...events.Envelope) []events.OutboxEntry {
	now := d.now()
	entries := make([]events.OutboxEntry, 0, len(envelopes))
	for _, env := range envelopes {
		entries = append(entries, events.NewOutboxEntry(env, now, d.config.GracePeriod))
	}
	return entries
}

// Dispatch publishes envelopes that are already in the outbox. Failures are
// logged and leave the outbox rows pending.
func (d *Dispatcher) Dispatch(ctx context.Context, envelopes ...events.Envelope) Dispatched {
	receipt := Dispatched{Published: []string{}, Deferred: []string{}}
	if len(envelopes) == 0 {
		return receipt
	}

	ids := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		ids = append(ids, env.ID)
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.config.PublishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, envelopes...); err != nil {
		d.logger.Warn("Event dispatch deferred to outbox",
			zap.Strings("eventIDs", ids),
			zap.Error(err),
		)
		receipt.Deferred = ids
		d.metrics.RecordDispatch(ctx, 0, len(ids))
		return receipt
	}

	receipt.Published = ids
	if err := d.outbox.MarkPublished(ctx, ids...); err != nil {
		// The sweeper will publish these again; consumers deduplicate by ID.
		d.logger.Warn("Failed to mark outbox entries published",
			zap.Strings("eventIDs", ids),
			zap.Error(err),
		)
	}
	d.metrics.RecordDispatch(ctx, len(ids), 0)
	return receipt
}
