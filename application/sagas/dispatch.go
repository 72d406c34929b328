package sagas

import (
	"context"

	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

// EventDispatcher persists follow-up events and publishes them best effort.
type EventDispatcher interface {
	Enqueue(ctx context.Context, envelopes ...events.Envelope) ([]events.Envelope, error)
	Dispatch(ctx context.Context, envelopes ...events.Envelope) appevents.Dispatched
}

// CleanupResult summarises a batch cleanup run.
type CleanupResult struct {
	Deleted int `json:"deleted"`
	Batches int `json:"batches"`
}
