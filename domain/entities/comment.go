package entities

import (
	"strings"

	"github.com/google/uuid"
)

const TypeComment = "#COMMENT"

// Comment is a message attached to a trip.
type Comment struct {
	ID        string `json:"id" dynamodbav:"id"`
	By        string `json:"by" dynamodbav:"by"`
	Body      string `json:"body" dynamodbav:"body"`
	Image     string `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Trip      string `json:"trip" dynamodbav:"trip"`
	CreatedAt string `json:"createdAt" dynamodbav:"createdAt"`
	Type      string `json:"type" dynamodbav:"type"`
}

// NewComment creates a comment. createdAt is supplied by the client.
func NewComment(by, body, image, tripID, createdAt string) *Comment {
	return &Comment{
		ID:        uuid.NewString(),
		By:        strings.ToLower(by),
		Body:      body,
		Image:     image,
		Trip:      tripID,
		CreatedAt: createdAt,
		Type:      TypeComment,
	}
}

// CanBeDeletedBy reports whether the caller may delete the comment.
func (c *Comment) CanBeDeletedBy(email string, isAdmin bool) bool {
	return isAdmin || strings.EqualFold(c.By, email)
}
