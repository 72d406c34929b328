package commands

import (
	appevents "github.com/FeroHriadel/tripiabackend/application/events"
)

// DeleteResult is returned by the delete command handlers.
type DeleteResult struct {
	ID         string               `json:"id"`
	Dispatched appevents.Dispatched `json:"dispatched"`
}
