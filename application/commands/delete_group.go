package commands

import (
	"strings"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DeleteGroupCommand deletes a group, its posts and the requester's membership.
type DeleteGroupCommand struct {
	GroupID     string
	RequestedBy string
	IsAdmin     bool
}

// Validate validates the command
func (c DeleteGroupCommand) Validate() error {
	if strings.TrimSpace(c.GroupID) == "" {
		return pkgerrors.NewValidationError("id is required")
	}
	if c.RequestedBy == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}
