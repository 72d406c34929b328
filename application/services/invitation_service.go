package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
	"github.com/FeroHriadel/tripiabackend/pkg/utils"
)

// CreateInvitationInput is the body of a new invitation.
type CreateInvitationInput struct {
	GroupID           string `json:"groupId" validate:"required"`
	GroupName         string `json:"groupName" validate:"required"`
	InvitedByEmail    string `json:"invitedByEmail" validate:"required"`
	InvitedByNickname string `json:"invitedByNickname" validate:"required"`
	InvitedByImage    string `json:"invitedByImage"`
	Invitee           string `json:"invitee" validate:"required"`
}

// InvitationService manages group invitations. Accepting one is a group
// update, see GroupService.
type InvitationService struct {
	invitations ports.InvitationRepository
	groups      ports.GroupRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvitationService creates a new invitation service
func NewInvitationService(invitations ports.InvitationRepository, groups ports.GroupRepository, logger *zap.Logger) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		groups:      groups,
		logger:      logger,
		now:         time.Now,
	}
}

// Create invites in.Invitee into a group. The inviter must be the caller,
// the invitee must not be a member yet and must not already be invited.
func (s *InvitationService) Create(ctx context.Context, caller Caller, in CreateInvitationInput) (*entities.Invitation, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !strings.EqualFold(in.InvitedByEmail, caller.Email) {
		return nil, pkgerrors.NewUnauthorizedError("")
	}

	group, err := s.groups.FindByID(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if group.IsMember(in.Invitee) {
		return nil, pkgerrors.NewValidationError("User is already a member")
	}

	pending, err := s.invitations.ListByInvitee(ctx, strings.ToLower(in.Invitee))
	if err != nil {
		return nil, err
	}
	for _, inv := range pending {
		if inv.GroupID == group.ID {
			return nil, pkgerrors.NewValidationError("Invitation already exists")
		}
	}

	inviter := &entities.User{
		Email:          strings.ToLower(in.InvitedByEmail),
		Nickname:       in.InvitedByNickname,
		ProfilePicture: in.InvitedByImage,
	}
	invitation := entities.NewInvitation(group, inviter, in.Invitee, s.now())
	if err := s.invitations.Save(ctx, invitation); err != nil {
		return nil, err
	}

	s.logger.Info("Invitation created",
		zap.String("invitationID", invitation.ID),
		zap.String("groupID", group.ID),
		zap.String("invitee", invitation.Invitee),
	)
	return invitation, nil
}

// ListForCaller returns the invitations addressed to the caller.
func (s *InvitationService) ListForCaller(ctx context.Context, caller Caller) ([]*entities.Invitation, error) {
	if caller.Email == "" {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	return s.invitations.ListByInvitee(ctx, strings.ToLower(caller.Email))
}

// Delete declines an invitation. Only the invitee or an admin may do so.
func (s *InvitationService) Delete(ctx context.Context, caller Caller, id string) error {
	invitation, err := s.invitations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin && !strings.EqualFold(invitation.Invitee, caller.Email) {
		return pkgerrors.NewForbiddenError("You are not authorized to delete this invitation")
	}
	if err := s.invitations.Delete(ctx, invitation.ID); err != nil {
		return err
	}

	s.logger.Info("Invitation deleted", zap.String("invitationID", invitation.ID), zap.String("requestedBy", caller.Email))
	return nil
}
