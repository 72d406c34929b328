package dynamodb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/observability"
)

// OutboxProcessorConfig tunes the outbox processor.
type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	Retry        events.RetryPolicy
}

// BatchResult summarises one drain of the outbox.
type BatchResult struct {
	Fetched   int `json:"fetched"`
	Published int `json:"published"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// OutboxProcessor republishes outbox entries that the inline dispatch did not
// deliver.
type OutboxProcessor struct {
	store     ports.OutboxStore
	publisher ports.EventPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	config    OutboxProcessorConfig
	now       func() time.Time

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	store ports.OutboxStore,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	config OutboxProcessorConfig,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.Retry.BaseBackoff <= 0 {
		config.Retry = events.DefaultRetryPolicy()
	}
	return &OutboxProcessor{
		store:       store,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		config:      config,
		now:         time.Now,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins draining the outbox every poll interval.
func (op *OutboxProcessor) Start(ctx context.Context) {
	op.logger.Info("Starting outbox processor",
		zap.Int("batchSize", op.config.BatchSize),
		zap.Duration("interval", op.config.PollInterval),
	)

	go op.processLoop(ctx)
}

// Stop gracefully stops the outbox processor
func (op *OutboxProcessor) Stop() {
	op.logger.Info("Stopping outbox processor")
	close(op.stopChan)
	<-op.stoppedChan
	op.logger.Info("Outbox processor stopped")
}

func (op *OutboxProcessor) processLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			op.logger.Info("Context cancelled, stopping outbox processor")
			return
		case <-op.stopChan:
			op.logger.Info("Stop signal received")
			return
		case <-ticker.C:
			if _, err := op.ProcessBatch(ctx); err != nil {
				op.logger.Error("Error processing outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes the pending entries that are due. Each entry is
// published on its own so one bad event does not hold back the rest.
func (op *OutboxProcessor) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	pending, err := op.store.Pending(ctx, op.now(), op.config.BatchSize)
	if err != nil {
		return result, fmt.Errorf("failed to get pending events: %w", err)
	}
	result.Fetched = len(pending)
	if len(pending) == 0 {
		return result, nil
	}

	op.logger.Debug("Processing outbox batch", zap.Int("eventCount", len(pending)))

	for _, entry := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		status, err := op.processEvent(ctx, entry)
		if err != nil {
			op.logger.Error("Failed to update outbox entry",
				zap.String("eventID", entry.Envelope.ID),
				zap.Error(err),
			)
		}
		switch status {
		case events.OutboxPublished:
			result.Published++
		case events.OutboxFailed:
			result.Failed++
		default:
			result.Retried++
		}
	}

	op.metrics.RecordOutboxBatch(ctx, result.Published, result.Retried, result.Failed)
	op.logger.Info("Completed outbox batch",
		zap.Int("fetched", result.Fetched),
		zap.Int("published", result.Published),
		zap.Int("retried", result.Retried),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// processEvent publishes one entry and stores its new state.
func (op *OutboxProcessor) processEvent(ctx context.Context, entry events.OutboxEntry) (events.OutboxStatus, error) {
	if err := op.publisher.Publish(ctx, entry.Envelope); err != nil {
		return op.markEventFailed(ctx, entry, err)
	}
	return events.OutboxPublished, op.markEventPublished(ctx, entry)
}

func (op *OutboxProcessor) markEventPublished(ctx context.Context, entry events.OutboxEntry) error {
	entry.MarkPublished()
	if err := op.store.Update(ctx, entry); err != nil {
		return err
	}

	op.logger.Debug("Event published from outbox",
		zap.String("eventID", entry.Envelope.ID),
		zap.String("kind", string(entry.Envelope.Kind)),
		zap.Int("attempts", entry.Attempts),
	)
	return nil
}

func (op *OutboxProcessor) markEventFailed(ctx context.Context, entry events.OutboxEntry, cause error) (events.OutboxStatus, error) {
	entry.RecordFailure(cause, op.now(), op.config.Retry)

	if entry.Status == events.OutboxFailed {
		op.logger.Warn("Event permanently failed after max retries",
			zap.String("eventID", entry.Envelope.ID),
			zap.String("kind", string(entry.Envelope.Kind)),
			zap.Int("attempts", entry.Attempts),
			zap.Error(cause),
		)
	} else {
		op.logger.Debug("Event marked for retry",
			zap.String("eventID", entry.Envelope.ID),
			zap.String("kind", string(entry.Envelope.Kind)),
			zap.Int("attempts", entry.Attempts),
			zap.Time("nextAttemptAt", entry.NextAttemptAt),
			zap.Error(cause),
		)
	}

	return entry.Status, op.store.Update(ctx, entry)
}

// Requeue gives a dead-lettered entry a fresh retry budget and makes it due
// immediately.
func (op *OutboxProcessor) Requeue(ctx context.Context, eventID string) (*events.OutboxEntry, error) {
	if eventID == "" {
		return nil, pkgerrors.NewValidationError("id is required")
	}

	entry, err := op.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	switch entry.Status {
	case events.OutboxFailed:
	case events.OutboxPublished:
		return nil, pkgerrors.NewConflictError("Event was already published")
	default:
		return nil, pkgerrors.NewConflictError("Only failed events can be requeued")
	}

	entry.Requeue(op.now())
	if err := op.store.Update(ctx, *entry); err != nil {
		return nil, err
	}

	op.logger.Info("Outbox entry requeued",
		zap.String("eventID", eventID),
		zap.String("kind", string(entry.Envelope.Kind)),
	)
	return entry, nil
}
