package sagas

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/pkg/observability"
)

// Step is a single step of a cascade.
type Step struct {
	Name        string
	Run         func(ctx context.Context) error
	MaxAttempts int
	RetryDelay  time.Duration
}

// Cascade runs cleanup steps in order. Deletions cannot be undone, so there
// is no compensation: a failed step stops the run and the whole event is
// redelivered. Every step must therefore be safe to repeat.
type Cascade struct {
	name    string
	eventID string
	steps   []Step
	logger  *zap.Logger
	tracer  *observability.Tracer
}

// NewCascade creates a cascade for the event eventID.
func NewCascade(name, eventID string, logger *zap.Logger, tracer *observability.Tracer) *Cascade {
	return &Cascade{
		name:    name,
		eventID: eventID,
		logger:  logger,
		tracer:  tracer,
	}
}

// AddStep adds a step to the cascade
func (c *Cascade) AddStep(step Step) *Cascade {
	c.steps = append(c.steps, step)
	return c
}

// Run executes the steps in order.
func (c *Cascade) Run(ctx context.Context) error {
	c.logger.Debug("Starting cascade",
		zap.String("cascade", c.name),
		zap.String("eventID", c.eventID),
		zap.Int("steps", len(c.steps)),
	)

	for i, step := range c.steps {
		err := c.tracer.TraceFunction(ctx, c.name+"."+step.Name, func(ctx context.Context) error {
			return c.runWithRetry(ctx, step)
		})
		if err != nil {
			c.logger.Error("Cascade step failed",
				zap.String("cascade", c.name),
				zap.String("eventID", c.eventID),
				zap.String("step", step.Name),
				zap.Int("stepNumber", i+1),
				zap.Error(err),
			)
			return fmt.Errorf("%s failed at step %s: %w", c.name, step.Name, err)
		}
	}

	c.logger.Debug("Cascade completed",
		zap.String("cascade", c.name),
		zap.String("eventID", c.eventID),
	)
	return nil
}

func (c *Cascade) runWithRetry(ctx context.Context, step Step) error {
	attempts := step.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if lastErr = step.Run(ctx); lastErr == nil {
			return nil
		}
		if attempt < attempts {
			c.logger.Warn("Cascade step attempt failed",
				zap.String("cascade", c.name),
				zap.String("step", step.Name),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("step %s failed after %d attempts: %w", step.Name, attempts, lastErr)
}
