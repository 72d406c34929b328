package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const TypeInvitation = "#INVITATION"

// Invitation asks a user to join a group.
type Invitation struct {
	ID                string `json:"id" dynamodbav:"id"`
	GroupID           string `json:"groupId" dynamodbav:"groupId"`
	GroupName         string `json:"groupName" dynamodbav:"groupName"`
	InvitedByEmail    string `json:"invitedByEmail" dynamodbav:"invitedByEmail"`
	InvitedByNickname string `json:"invitedByNickname" dynamodbav:"invitedByNickname"`
	InvitedByImage    string `json:"invitedByImage,omitempty" dynamodbav:"invitedByImage,omitempty"`
	Invitee           string `json:"invitee" dynamodbav:"invitee"`
	CreatedAt         string `json:"createdAt" dynamodbav:"createdAt"`
	Type              string `json:"type" dynamodbav:"type"`
}

// NewInvitation creates an invitation of invitee into group, sent by inviter.
func NewInvitation(group *Group, inviter *User, invitee string, now time.Time) *Invitation {
	return &Invitation{
		ID:                uuid.NewString(),
		GroupID:           group.ID,
		GroupName:         group.Name,
		InvitedByEmail:    inviter.Email,
		InvitedByNickname: inviter.Nickname,
		InvitedByImage:    inviter.ProfilePicture,
		Invitee:           strings.ToLower(invitee),
		CreatedAt:         now.UTC().Format(time.RFC3339),
		Type:              TypeInvitation,
	}
}
