package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// UpdateGroupInput selects one of three updates: rename (Name), accept an
// invitation (InvitationID) or change membership of Email.
type UpdateGroupInput struct {
	Name         string `json:"name"`
	InvitationID string `json:"invitationId"`
	Email        string `json:"email"`
	Intent       string `json:"intent"`
}

// GroupService manages groups and their member lists. Every membership
// change also queues an update of the member's own group list.
type GroupService struct {
	groups      ports.GroupRepository
	invitations ports.InvitationRepository
	users       ports.UserRepository
	dispatcher  EventDispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// NewGroupService creates a new group service
func NewGroupService(
	groups ports.GroupRepository,
	invitations ports.InvitationRepository,
	users ports.UserRepository,
	dispatcher EventDispatcher,
	logger *zap.Logger,
) *GroupService {
	return &GroupService{
		groups:      groups,
		invitations: invitations,
		users:       users,
		dispatcher:  dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// Create makes a group with the caller as creator and first member.
func (s *GroupService) Create(ctx context.Context, caller Caller, name string) (*entities.Group, error) {
	if caller.Email == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("Group must have a name")
	}

	now := s.now()
	group, err := entities.NewGroup(name, caller.Email, now)
	if err != nil {
		return nil, err
	}
	if err := s.saveWithMembership(ctx, group, group.CreatedBy, entities.IntentJoin, now); err != nil {
		return nil, err
	}

	s.logger.Info("Group created", zap.String("groupID", group.ID), zap.String("createdBy", group.CreatedBy))
	return group, nil
}

// Get returns one group.
func (s *GroupService) Get(ctx context.Context, id string) (*entities.Group, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.NewValidationError("id is required")
	}
	return s.groups.FindByID(ctx, id)
}

// ListForUser returns the groups listed on email's profile.
func (s *GroupService) ListForUser(ctx context.Context, email string) ([]*entities.Group, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return []*entities.Group{}, nil
		}
		return nil, err
	}
	return s.BatchGet(ctx, user.Groups)
}

// BatchGet returns the groups with the given ids. Unknown ids are skipped.
func (s *GroupService) BatchGet(ctx context.Context, ids []string) ([]*entities.Group, error) {
	ids = utils.NonEmpty(ids)
	if len(ids) == 0 {
		return []*entities.Group{}, nil
	}
	return s.groups.FindByIDs(ctx, ids)
}

// Update applies in to the group with id.
func (s *GroupService) Update(ctx context.Context, caller Caller, id string, in UpdateGroupInput) (*entities.Group, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case in.Name != "":
		return s.rename(ctx, caller, group, in.Name)
	case in.InvitationID != "":
		return s.acceptInvitation(ctx, caller, group, in.InvitationID)
	case in.Email != "":
		return s.updateMember(ctx, caller, group, in.Email, in.Intent)
	default:
		return nil, pkgerrors.NewValidationError("name, invitationId or email is required")
	}
}

func (s *GroupService) rename(ctx context.Context, caller Caller, group *entities.Group, name string) (*entities.Group, error) {
	if !caller.IsAdmin && !group.IsCreator(caller.Email) {
		return nil, pkgerrors.NewForbiddenError("Unauthorized")
	}
	if err := group.Rename(name, s.now()); err != nil {
		return nil, err
	}
	if err := s.groups.Save(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) acceptInvitation(ctx context.Context, caller Caller, group *entities.Group, invitationID string) (*entities.Group, error) {
	invitation, err := s.invitations.FindByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.GroupID != group.ID {
		return nil, pkgerrors.NewValidationError("Invitation does not belong to this group")
	}
	if !caller.IsAdmin && !strings.EqualFold(invitation.Invitee, caller.Email) {
		return nil, pkgerrors.NewForbiddenError("Unauthorized")
	}

	now := s.now()
	if group.UpdateMembership(invitation.Invitee, entities.IntentJoin, now) {
		if err := s.saveWithMembership(ctx, group, invitation.Invitee, entities.IntentJoin, now); err != nil {
			return nil, err
		}
	}

	if err := s.invitations.Delete(ctx, invitation.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Invitation accepted",
		zap.String("groupID", group.ID),
		zap.String("invitationID", invitation.ID),
		zap.String("invitee", invitation.Invitee),
	)
	return group, nil
}

func (s *GroupService) updateMember(ctx context.Context, caller Caller, group *entities.Group, email, rawIntent string) (*entities.Group, error) {
	intent, err := entities.ParseIntent(rawIntent)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if !caller.IsAdmin && !group.IsMember(caller.Email) {
		return nil, pkgerrors.NewForbiddenError("Unauthorized")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	resolved := intent.Resolve(group.IsMember(email))
	now := s.now()
	if !group.UpdateMembership(email, resolved, now) {
		return group, nil
	}
	if err := s.saveWithMembership(ctx, group, email, resolved, now); err != nil {
		return nil, err
	}

	s.logger.Info("Group membership updated",
		zap.String("groupID", group.ID),
		zap.String("email", email),
		zap.String("intent", string(resolved)),
	)
	return group, nil
}

// saveWithMembership persists group together with an UpdateUserGroups event
// for email, then publishes the event best effort.
func (s *GroupService) saveWithMembership(ctx context.Context, group *entities.Group, email string, intent entities.MembershipIntent, now time.Time) error {
	envelope, err := events.NewEnvelope(events.UpdateUserGroups{
		UserEmail: email,
		GroupID:   group.ID,
		Intent:    intent,
	}, now)
	if err != nil {
		return fmt.Errorf("failed to build membership event: %w", err)
	}

	if err := s.groups.Save(ctx, group, envelope); err != nil {
		return err
	}

	if dispatched := s.dispatcher.Dispatch(ctx, envelope); !dispatched.Complete() {
		s.logger.Warn("Membership update deferred to outbox",
			zap.String("groupID", group.ID),
			zap.String("eventID", envelope.ID),
		)
	}
	return nil
}
