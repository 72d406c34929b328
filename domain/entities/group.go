package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

const TypeGroup = "#GROUP"

// Group is a set of users sharing a realtime post feed.
type Group struct {
	ID        string   `json:"id" dynamodbav:"id"`
	Name      string   `json:"name" dynamodbav:"name"`
	CreatedBy string   `json:"createdBy" dynamodbav:"createdBy"`
	Members   []string `json:"members" dynamodbav:"members"`
	CreatedAt string   `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt string   `json:"updatedAt" dynamodbav:"updatedAt"`
	Type      string   `json:"type" dynamodbav:"type"`
}

// NewGroup creates a group whose creator is its first member.
func NewGroup(name, createdBy string, now time.Time) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("name is required")
	}
	createdBy = strings.ToLower(createdBy)
	ts := now.UTC().Format(time.RFC3339)
	return &Group{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: createdBy,
		Members:   []string{createdBy},
		CreatedAt: ts,
		UpdatedAt: ts,
		Type:      TypeGroup,
	}, nil
}

// IsMember reports whether email belongs to the group.
func (g *Group) IsMember(email string) bool {
	for _, m := range g.Members {
		if strings.EqualFold(m, email) {
			return true
		}
	}
	return false
}

// IsCreator reports whether email created the group.
func (g *Group) IsCreator(email string) bool {
	return strings.EqualFold(g.CreatedBy, email)
}

// UpdateMembership applies intent for email and reports whether the member
// list changed.
func (g *Group) UpdateMembership(email string, intent MembershipIntent, now time.Time) bool {
	members, changed := ApplyMembership(g.Members, strings.ToLower(email), intent)
	if changed {
		g.Members = members
		g.UpdatedAt = now.UTC().Format(time.RFC3339)
	}
	return changed
}

// Rename changes the group name.
func (g *Group) Rename(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return pkgerrors.NewValidationError("name is required")
	}
	g.Name = name
	g.UpdatedAt = now.UTC().Format(time.RFC3339)
	return nil
}
