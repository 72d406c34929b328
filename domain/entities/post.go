package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const TypePost = "#POST"

// postTimeLayout has fixed width so createdAt sorts lexically.
const postTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Post is a message in a group feed.
type Post struct {
	ID        string   `json:"id" dynamodbav:"id"`
	GroupID   string   `json:"groupId" dynamodbav:"groupId"`
	PostedBy  string   `json:"postedBy" dynamodbav:"postedBy"`
	Body      string   `json:"body" dynamodbav:"body"`
	Images    []string `json:"images" dynamodbav:"images"`
	CreatedAt string   `json:"createdAt" dynamodbav:"createdAt"`
	Type      string   `json:"type" dynamodbav:"type"`
}

// NewPost creates a post in groupID.
func NewPost(groupID, postedBy, body string, images []string, now time.Time) *Post {
	if images == nil {
		images = []string{}
	}
	return &Post{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		PostedBy:  strings.ToLower(postedBy),
		Body:      body,
		Images:    images,
		CreatedAt: now.UTC().Format(postTimeLayout),
		Type:      TypePost,
	}
}

// CanBeDeletedBy reports whether the caller may delete the post.
func (p *Post) CanBeDeletedBy(email string, isAdmin bool) bool {
	return isAdmin || strings.EqualFold(p.PostedBy, email)
}
