// Package services holds the CRUD use cases behind the REST API. Deletions
// with cascading side effects live in application/commands instead.
package services

import (
	"context"

	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/domain/events"
)

// Caller is the authenticated user a service call runs on behalf of.
type Caller struct {
	Email   string
	IsAdmin bool
}

// EventDispatcher publishes committed events on a best-effort basis.
type EventDispatcher interface {
	Dispatch(ctx context.Context, envelopes ...events.Envelope) appevents.Dispatched
}
