package handlers

import (
	"context"

	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

// EventDispatcher publishes committed cascade events on a best-effort basis.
type EventDispatcher interface {
	Dispatch(ctx context.Context, envelopes ...events.Envelope) appevents.Dispatched
}
