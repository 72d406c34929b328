package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// UserContext represents the authenticated caller.
type UserContext struct {
	UserID  string
	Email   string
	Groups  []string
	IsAdmin bool
}

type contextKey string

const UserContextKey contextKey = "user"

// NewUserContext builds the caller identity from token claims. Emails are
// compared case-insensitively everywhere, so they are lower-cased here.
func NewUserContext(userID, email string, groups []string, adminGroup string) *UserContext {
	return &UserContext{
		UserID:  userID,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Groups:  groups,
		IsAdmin: adminGroup != "" && contains(groups, adminGroup),
	}
}

// GetUserFromContext extracts user from context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// ParseGroupsClaim reads the cognito:groups claim as forwarded by API Gateway.
// HTTP API authorizers flatten arrays to "[a b]"; REST and Lambda authorizers
// pass JSON or comma separated values.
func ParseGroupsClaim(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var groups []string
	if strings.HasPrefix(raw, "[\"") && json.Unmarshal([]byte(raw), &groups) == nil {
		return groups
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' }) {
		if part != "" {
			groups = append(groups, part)
		}
	}
	return groups
}
