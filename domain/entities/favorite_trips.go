package entities

import (
	"strings"
	"time"
)

const TypeFavoriteTrips = "#FAVORITE_TRIPS"

// FavoriteTrips is the list of trips a user bookmarked.
type FavoriteTrips struct {
	Email     string   `json:"email" dynamodbav:"email"`
	TripIDs   []string `json:"tripIds" dynamodbav:"tripIds"`
	UpdatedAt string   `json:"updatedAt" dynamodbav:"updatedAt"`
	Type      string   `json:"type" dynamodbav:"type"`
}

// NewFavoriteTrips replaces the favorites of email with tripIDs.
func NewFavoriteTrips(email string, tripIDs []string, now time.Time) *FavoriteTrips {
	if tripIDs == nil {
		tripIDs = []string{}
	}
	return &FavoriteTrips{
		Email:     strings.ToLower(email),
		TripIDs:   tripIDs,
		UpdatedAt: now.UTC().Format(time.RFC3339),
		Type:      TypeFavoriteTrips,
	}
}
