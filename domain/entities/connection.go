package entities

import (
	"strings"
	"time"
)

// ConnectionTTL bounds how long an unclosed connection record survives.
const ConnectionTTL = 2 * time.Hour

// Connection is a live WebSocket connection subscribed to a group feed.
type Connection struct {
	ID          string `json:"id" dynamodbav:"id"`
	GroupID     string `json:"groupId" dynamodbav:"groupId"`
	Email       string `json:"email" dynamodbav:"email"`
	ConnectedAt string `json:"connectedAt" dynamodbav:"connectedAt"`
	TTL         int64  `json:"ttl" dynamodbav:"ttl"`
}

// NewConnection records connectionID as subscribed to groupID.
func NewConnection(connectionID, groupID, email string, now time.Time) *Connection {
	return &Connection{
		ID:          connectionID,
		GroupID:     groupID,
		Email:       strings.ToLower(email),
		ConnectedAt: now.UTC().Format(time.RFC3339),
		TTL:         now.Add(ConnectionTTL).Unix(),
	}
}
