package commands

import (
	"strings"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DeleteTripCommand deletes a trip and schedules removal of its comments and image.
type DeleteTripCommand struct {
	TripID      string
	RequestedBy string
	IsAdmin     bool
}

// Validate validates the command
func (c DeleteTripCommand) Validate() error {
	if strings.TrimSpace(c.TripID) == "" {
		return pkgerrors.NewValidationError("id is required")
	}
	if c.RequestedBy == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}
