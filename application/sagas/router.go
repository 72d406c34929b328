package sagas

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// settleTimeout bounds the claim bookkeeping after a subscriber returns.
const settleTimeout = 5 * time.Second

// Subscriber consumes one kind of cascade event.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, env events.Envelope, evt events.Event) error
}

// Router delivers envelopes to the subscriber registered for their kind.
// Each subscriber completes an event ID at most once. A run that fails
// releases its claim, and one that dies holding it is taken over when its
// lease expires.
type Router struct {
	mu          sync.RWMutex
	subscribers map[events.Kind]Subscriber
	idempotency ports.IdempotencyStore
	logger      *zap.Logger
}

// NewRouter creates a router. A nil idempotency store disables deduplication.
func NewRouter(idempotency ports.IdempotencyStore, logger *zap.Logger) *Router {
	return &Router{
		subscribers: make(map[events.Kind]Subscriber),
		idempotency: idempotency,
		logger:      logger,
	}
}

// Register binds sub to kind, replacing any previous subscriber.
func (r *Router) Register(kind events.Kind, sub Subscriber) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[kind] = sub
	return r
}

// Kinds returns the kinds that have a subscriber.
func (r *Router) Kinds() []events.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]events.Kind, 0, len(r.subscribers))
	for _, k := range events.Kinds {
		if _, ok := r.subscribers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Route decodes a raw envelope and runs its subscriber. Validation errors
// mean the event can never succeed and should not be redelivered.
func (r *Router) Route(ctx context.Context, detail []byte) error {
	kind := gjson.GetBytes(detail, "kind")
	if !kind.Exists() || kind.String() == "" {
		return pkgerrors.NewValidationError("event has no kind")
	}

	r.mu.RLock()
	sub, ok := r.subscribers[events.Kind(kind.String())]
	r.mu.RUnlock()
	if !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("no subscriber for kind %q", kind.String()))
	}

	var env events.Envelope
	if err := json.Unmarshal(detail, &env); err != nil {
		return pkgerrors.NewValidationError("malformed envelope").WithCause(err)
	}
	if env.ID == "" {
		return pkgerrors.NewValidationError("event has no id")
	}
	evt, err := env.Decode()
	if err != nil {
		return err
	}

	return r.deliver(ctx, sub, env, evt)
}

func (r *Router) deliver(ctx context.Context, sub Subscriber, env events.Envelope, evt events.Event) error {
	if r.idempotency == nil {
		return sub.Handle(ctx, env, evt)
	}

	claimed, err := r.idempotency.Claim(ctx, sub.Name(), env.ID)
	if err != nil {
		return fmt.Errorf("failed to claim event %s: %w", env.ID, err)
	}
	if !claimed {
		r.logger.Info("Skipping already processed event",
			zap.String("subscriber", sub.Name()),
			zap.String("eventID", env.ID),
		)
		return nil
	}

	handleErr := sub.Handle(ctx, env, evt)

	// The invocation context may already be past its deadline here.
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if handleErr != nil {
		if err := r.idempotency.Release(settleCtx, sub.Name(), env.ID); err != nil {
			r.logger.Error("Failed to release idempotency claim, redelivery waits for the lease to expire",
				zap.String("subscriber", sub.Name()),
				zap.String("eventID", env.ID),
				zap.Error(err),
			)
		}
		return handleErr
	}

	if err := r.idempotency.Complete(settleCtx, sub.Name(), env.ID); err != nil {
		r.logger.Error("Failed to complete idempotency claim",
			zap.String("subscriber", sub.Name()),
			zap.String("eventID", env.ID),
			zap.Error(err),
		)
	}
	return nil
}

func unexpectedEvent(sub string, evt events.Event) error {
	return pkgerrors.NewValidationError(fmt.Sprintf("%s cannot handle %s", sub, evt.Kind()))
}
