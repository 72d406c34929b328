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

// UpdateUserInput is the editable part of a profile.
type UpdateUserInput struct {
	Email          string `json:"email" validate:"required"`
	Nickname       string `json:"nickname" validate:"required"`
	ProfilePicture string `json:"profilePicture"`
	About          string `json:"about"`
}

// SignupInput identifies a freshly confirmed identity provider user.
type SignupInput struct {
	Email      string
	UserPoolID string
	Username   string
}

// UserService manages user profiles.
type UserService struct {
	users      ports.UserRepository
	attributes ports.UserAttributeUpdater
	logger     *zap.Logger
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users ports.UserRepository, attributes ports.UserAttributeUpdater, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		attributes: attributes,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the profile of email.
func (s *UserService) Get(ctx context.Context, email string) (*entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.NewValidationError("email is required")
	}
	return s.users.FindByEmail(ctx, email)
}

// BatchGet returns the profiles of emails. Unknown emails are skipped.
func (s *UserService) BatchGet(ctx context.Context, emails []string) ([]*entities.User, error) {
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(e)))
	}
	normalized = utils.NonEmpty(normalized)
	if len(normalized) == 0 {
		return nil, pkgerrors.NewValidationError("emails are required")
	}
	return s.users.FindByEmails(ctx, normalized)
}

// Update changes a profile. Users may edit their own profile; admins may
// edit any.
func (s *UserService) Update(ctx context.Context, caller Caller, in UpdateUserInput) (*entities.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !strings.EqualFold(in.Email, caller.Email) {
		return nil, pkgerrors.NewForbiddenError("You are not authorized to update this user")
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(in.Email))
	if err != nil {
		return nil, err
	}

	user.UpdateProfile(in.Nickname, in.ProfilePicture, in.About, s.now())
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.String("email", user.Email), zap.String("updatedBy", caller.Email))
	return user, nil
}

// CreateFromSignup creates the profile of a newly confirmed user and copies
// the default nickname to the identity provider. A profile that already
// exists is left untouched.
func (s *UserService) CreateFromSignup(ctx context.Context, in SignupInput) (*entities.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, pkgerrors.NewValidationError("email is required")
	}

	user := entities.NewUser(in.Email, s.now())
	if err := s.users.Create(ctx, user); err != nil {
		if !pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Info("User profile already exists", zap.String("email", user.Email))
	}

	if s.attributes != nil && in.UserPoolID != "" && in.Username != "" {
		if err := s.attributes.SetNickname(ctx, in.UserPoolID, in.Username, user.Nickname); err != nil {
			s.logger.Error("Failed to set nickname attribute",
				zap.Error(err),
				zap.String("email", user.Email),
				zap.String("username", in.Username),
			)
		}
	}

	s.logger.Info("User signed up", zap.String("email", user.Email))
	return user, nil
}
