package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/commands"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// DeleteGroupHandler handles group deletion commands
type DeleteGroupHandler struct {
	groupRepo  ports.GroupRepository
	dispatcher EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewDeleteGroupHandler creates a new delete group handler
func NewDeleteGroupHandler(groupRepo ports.GroupRepository, dispatcher EventDispatcher, logger *zap.Logger) *DeleteGroupHandler {
	return &DeleteGroupHandler{
		groupRepo:  groupRepo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle deletes the group. Only the requester's own group list is updated;
// other members keep a dangling group ID until they next leave it.
func (h *DeleteGroupHandler) Handle(ctx context.Context, cmd commands.DeleteGroupCommand) (*commands.DeleteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	group, err := h.groupRepo.FindByID(ctx, cmd.GroupID)
	if err != nil {
		return nil, err
	}
	if !cmd.IsAdmin && !group.IsCreator(cmd.RequestedBy) {
		return nil, pkgerrors.NewForbiddenError("You are not authorized to delete this group")
	}

	envelopes, err := events.NewEnvelopes(h.now(),
		events.UpdateUserGroups{UserEmail: cmd.RequestedBy, GroupID: group.ID, Intent: entities.IntentLeave},
		events.BatchDeletePostsForGroup{GroupID: group.ID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build cascade events: %w", err)
	}

	if err := h.groupRepo.Delete(ctx, group.ID, envelopes...); err != nil {
		return nil, err
	}

	dispatched := h.dispatcher.Dispatch(ctx, envelopes...)
	if !dispatched.Complete() {
		h.logger.Warn("Group deleted, cascade deferred to outbox",
			zap.String("groupID", group.ID),
			zap.Strings("deferred", dispatched.Deferred),
		)
	}

	h.logger.Info("Group deleted",
		zap.String("groupID", group.ID),
		zap.String("requestedBy", cmd.RequestedBy),
	)
	return &commands.DeleteResult{ID: group.ID, Dispatched: dispatched}, nil
}
