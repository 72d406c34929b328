package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

const TypeTrip = "#TRIP"

// Trip is a planned outing published by a user.
type Trip struct {
	ID               string   `json:"id" dynamodbav:"id"`
	Name             string   `json:"name" dynamodbav:"name"`
	NameLower        string   `json:"name_lower" dynamodbav:"name_lower"`
	DepartureTime    string   `json:"departureTime" dynamodbav:"departureTime"`
	DepartureDate    string   `json:"departureDate,omitempty" dynamodbav:"departureDate,omitempty"`
	DepartureFrom    string   `json:"departureFrom" dynamodbav:"departureFrom"`
	Destination      string   `json:"destination" dynamodbav:"destination"`
	Description      string   `json:"description" dynamodbav:"description"`
	DescriptionLower string   `json:"description_lower" dynamodbav:"description_lower"`
	CreatedBy        string   `json:"createdBy" dynamodbav:"createdBy"`
	Nickname         string   `json:"nickname" dynamodbav:"nickname"`
	NicknameLower    string   `json:"nickname_lower" dynamodbav:"nickname_lower"`
	CreatedAt        string   `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        string   `json:"updatedAt" dynamodbav:"updatedAt"`
	Type             string   `json:"type" dynamodbav:"type"`
	Category         string   `json:"category,omitempty" dynamodbav:"category,omitempty"`
	KeyWords         string   `json:"keyWords" dynamodbav:"keyWords"`
	Image            string   `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Requirements     string   `json:"requirements" dynamodbav:"requirements"`
	MeetingLat       *float64 `json:"meetingLat,omitempty" dynamodbav:"meetingLat,omitempty"`
	MeetingLng       *float64 `json:"meetingLng,omitempty" dynamodbav:"meetingLng,omitempty"`
	DestinationLat   *float64 `json:"destinationLat,omitempty" dynamodbav:"destinationLat,omitempty"`
	DestinationLng   *float64 `json:"destinationLng,omitempty" dynamodbav:"destinationLng,omitempty"`
}

// TripDetails are the user editable fields of a trip.
type TripDetails struct {
	Name           string   `json:"name" validate:"required"`
	DepartureTime  string   `json:"departureTime" validate:"required"`
	DepartureDate  string   `json:"departureDate"`
	DepartureFrom  string   `json:"departureFrom" validate:"required"`
	Destination    string   `json:"destination" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	Category       string   `json:"category"`
	KeyWords       string   `json:"keyWords"`
	Image          string   `json:"image"`
	Requirements   string   `json:"requirements"`
	MeetingLat     *float64 `json:"meetingLat"`
	MeetingLng     *float64 `json:"meetingLng"`
	DestinationLat *float64 `json:"destinationLat"`
	DestinationLng *float64 `json:"destinationLng"`
}

// NewTrip creates a trip owned by createdBy. The nickname is copied from the
// owner's profile at creation time only.
func NewTrip(details TripDetails, createdBy, nickname string, now time.Time) (*Trip, error) {
	if createdBy == "" {
		return nil, pkgerrors.NewValidationError("createdBy is required")
	}
	ts := now.UTC().Format(time.RFC3339)
	t := &Trip{
		ID:            uuid.NewString(),
		CreatedBy:     strings.ToLower(createdBy),
		Nickname:      nickname,
		NicknameLower: strings.ToLower(nickname),
		CreatedAt:     ts,
		Type:          TypeTrip,
	}
	t.Apply(details, now)
	return t, nil
}

// Apply overwrites the editable fields and bumps updatedAt.
func (t *Trip) Apply(d TripDetails, now time.Time) {
	t.Name = d.Name
	t.NameLower = strings.ToLower(d.Name)
	t.DepartureTime = d.DepartureTime
	t.DepartureDate = d.DepartureDate
	t.DepartureFrom = d.DepartureFrom
	t.Destination = d.Destination
	t.Description = d.Description
	t.DescriptionLower = strings.ToLower(d.Description)
	t.Category = d.Category
	t.KeyWords = strings.ToLower(d.KeyWords)
	t.Image = d.Image
	t.Requirements = d.Requirements
	t.MeetingLat = d.MeetingLat
	t.MeetingLng = d.MeetingLng
	t.DestinationLat = d.DestinationLat
	t.DestinationLng = d.DestinationLng
	t.UpdatedAt = now.UTC().Format(time.RFC3339)
}

// CanBeModifiedBy reports whether the caller may update or delete the trip.
func (t *Trip) CanBeModifiedBy(email string, isAdmin bool) bool {
	return isAdmin || strings.EqualFold(t.CreatedBy, email)
}

// Matches reports whether the trip contains word in its searchable fields.
func (t *Trip) Matches(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return true
	}
	return strings.Contains(t.NameLower, word) ||
		strings.Contains(t.DescriptionLower, word) ||
		strings.Contains(t.KeyWords, word) ||
		strings.Contains(t.NicknameLower, word)
}
