package entities

import (
	"strings"
	"time"
)

const TypeUser = "#USER"

// User is a registered member profile, keyed by lower-cased email.
type User struct {
	Email          string   `json:"email" dynamodbav:"email"`
	Nickname       string   `json:"nickname" dynamodbav:"nickname"`
	NicknameLower  string   `json:"nickname_lower" dynamodbav:"nickname_lower"`
	ProfilePicture string   `json:"profilePicture" dynamodbav:"profilePicture"`
	About          string   `json:"about" dynamodbav:"about"`
	Groups         []string `json:"groups" dynamodbav:"groups"`
	CreatedAt      string   `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt      string   `json:"updatedAt" dynamodbav:"updatedAt"`
	Type           string   `json:"type" dynamodbav:"type"`
}

// NewUser creates a profile for a freshly confirmed sign-up. The nickname
// defaults to the local part of the email.
func NewUser(email string, now time.Time) *User {
	email = strings.ToLower(strings.TrimSpace(email))
	nickname := DefaultNickname(email)
	ts := now.UTC().Format(time.RFC3339)
	return &User{
		Email:         email,
		Nickname:      nickname,
		NicknameLower: strings.ToLower(nickname),
		Groups:        []string{},
		CreatedAt:     ts,
		UpdatedAt:     ts,
		Type:          TypeUser,
	}
}

// DefaultNickname returns the part of email before '@'.
func DefaultNickname(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// UpdateProfile overwrites the editable profile fields.
func (u *User) UpdateProfile(nickname, profilePicture, about string, now time.Time) {
	u.Nickname = nickname
	u.NicknameLower = strings.ToLower(nickname)
	u.ProfilePicture = profilePicture
	u.About = about
	u.UpdatedAt = now.UTC().Format(time.RFC3339)
}

// UpdateGroups applies intent for groupID and reports whether anything changed.
func (u *User) UpdateGroups(groupID string, intent MembershipIntent, now time.Time) bool {
	groups, changed := ApplyMembership(u.Groups, groupID, intent)
	if changed {
		u.Groups = groups
		u.UpdatedAt = now.UTC().Format(time.RFC3339)
	}
	return changed
}
