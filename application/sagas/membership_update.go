package sagas

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// MembershipUpdate keeps a user's group list in step with group membership.
type MembershipUpdate struct {
	users  ports.UserRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewMembershipUpdate creates the update-user-groups subscriber.
func NewMembershipUpdate(users ports.UserRepository, logger *zap.Logger) *MembershipUpdate {
	return &MembershipUpdate{users: users, logger: logger, now: time.Now}
}

func (s *MembershipUpdate) Name() string { return "update-user-groups" }

func (s *MembershipUpdate) Handle(ctx context.Context, env events.Envelope, evt events.Event) error {
	e, ok := evt.(events.UpdateUserGroups)
	if !ok {
		return unexpectedEvent(s.Name(), evt)
	}
	_, err := s.Run(ctx, e.UserEmail, e.GroupID, e.Intent)
	return err
}

// Run applies intent to the user's groups and reports whether it changed.
// A user that no longer exists needs no update.
func (s *MembershipUpdate) Run(ctx context.Context, email, groupID string, intent entities.MembershipIntent) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			s.logger.Info("User not found, nothing to update",
				zap.String("email", email),
				zap.String("groupID", groupID),
			)
			return false, nil
		}
		return false, err
	}

	if !user.UpdateGroups(groupID, intent, s.now()) {
		return false, nil
	}
	if err := s.users.Save(ctx, user); err != nil {
		return false, err
	}

	s.logger.Info("User groups updated",
		zap.String("email", email),
		zap.String("groupID", groupID),
		zap.String("intent", string(intent)),
	)
	return true, nil
}
