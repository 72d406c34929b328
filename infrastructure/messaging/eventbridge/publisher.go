// Package eventbridge publishes cascade event envelopes to an EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// EventBridge accepts at most 10 entries per PutEvents call.
const batchSize = 10

// PutEventsAPI is the part of the EventBridge client the publisher needs.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// BreakerConfig tunes the circuit breaker around PutEvents.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig opens after 5 calls with 80% failures and probes
// again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Publisher sends envelopes to EventBridge. The detail is the envelope JSON
// and the detail type is the event kind.
type Publisher struct {
	client       PutEventsAPI
	eventBusName string
	source       string
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client PutEventsAPI, eventBusName, source string, breaker BreakerConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		source:       source,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "eventbridge-" + eventBusName,
			MaxRequests: breaker.MaxRequests,
			Interval:    breaker.Interval,
			Timeout:     breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < breaker.MinRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= breaker.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

// Publish sends envelopes in batches of 10. It fails when any entry was
// rejected; entries that were accepted before the failure stay published,
// which is safe because consumers deduplicate by envelope ID.
func (p *Publisher) Publish(ctx context.Context, envelopes ...events.Envelope) error {
	for _, batch := range utils.Chunk(envelopes, batchSize) {
		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, p.publishBatch(ctx, batch)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return pkgerrors.NewExternalError("eventbridge", err)
			}
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, batch []events.Envelope) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	for _, env := range batch {
		detail, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal envelope %s: %w", env.ID, err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(string(env.Kind)),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(env.OccurredAt),
		})
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil && i < len(batch) {
				p.logger.Error("Failed to publish event",
					zap.String("eventID", batch[i].ID),
					zap.String("kind", string(batch[i].Kind)),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}
