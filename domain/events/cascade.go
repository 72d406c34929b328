package events

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// Kind names a cascade event variant. It doubles as the EventBridge detail type.
type Kind string

const (
	KindDeleteImages             Kind = "DeleteImages"
	KindDeleteCommentsForTrip    Kind = "DeleteCommentsForTrip"
	KindBatchDeletePostsForGroup Kind = "BatchDeletePostsForGroup"
	KindUpdateUserGroups         Kind = "UpdateUserGroups"
)

// Kinds lists every known variant.
var Kinds = []Kind{
	KindDeleteImages,
	KindDeleteCommentsForTrip,
	KindBatchDeletePostsForGroup,
	KindUpdateUserGroups,
}

// Event is one of the cascade event variants.
type Event interface {
	Kind() Kind
	Validate() error
}

// DeleteImages asks for removal of stored image objects.
type DeleteImages struct {
	Keys []string
}

// DeleteCommentsForTrip asks for removal of every comment on a deleted trip.
type DeleteCommentsForTrip struct {
	TripID string `json:"tripId"`
}

// BatchDeletePostsForGroup asks for removal of every post of a deleted group.
type BatchDeletePostsForGroup struct {
	GroupID string `json:"groupId"`
}

// UpdateUserGroups changes a user's group list.
type UpdateUserGroups struct {
	UserEmail string                    `json:"userEmail"`
	GroupID   string                    `json:"groupId"`
	Intent    entities.MembershipIntent `json:"intent"`
}

func (DeleteImages) Kind() Kind             { return KindDeleteImages }
func (DeleteCommentsForTrip) Kind() Kind    { return KindDeleteCommentsForTrip }
func (BatchDeletePostsForGroup) Kind() Kind { return KindBatchDeletePostsForGroup }
func (UpdateUserGroups) Kind() Kind         { return KindUpdateUserGroups }

func (e DeleteImages) Validate() error {
	for _, k := range e.Keys {
		if strings.TrimSpace(k) == "" {
			return pkgerrors.NewValidationError("image key cannot be empty")
		}
	}
	return nil
}

func (e DeleteCommentsForTrip) Validate() error {
	if e.TripID == "" {
		return pkgerrors.NewValidationError("tripId is required")
	}
	return nil
}

func (e BatchDeletePostsForGroup) Validate() error {
	if e.GroupID == "" {
		return pkgerrors.NewValidationError("groupId is required")
	}
	return nil
}

func (e UpdateUserGroups) Validate() error {
	if e.UserEmail == "" {
		return pkgerrors.NewValidationError("userEmail is required")
	}
	if e.GroupID == "" {
		return pkgerrors.NewValidationError("groupId is required")
	}
	if !e.Intent.Valid() {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown intent %q", e.Intent))
	}
	return nil
}

// MarshalJSON writes the keys as {"images":{"image1":..,"image2":..}}, the
// shape the image cleanup consumers have always read.
func (e DeleteImages) MarshalJSON() ([]byte, error) {
	images := make(map[string]string, len(e.Keys))
	for i, k := range e.Keys {
		images["image"+strconv.Itoa(i+1)] = k
	}
	return json.Marshal(struct {
		Images map[string]string `json:"images"`
	}{images})
}

// UnmarshalJSON accepts the keyed map form and a plain array.
func (e *DeleteImages) UnmarshalJSON(data []byte) error {
	var raw struct {
		Images json.RawMessage `json:"images"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Keys = nil
	if len(raw.Images) == 0 || string(raw.Images) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw.Images, &list); err == nil {
		e.Keys = list
		return nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(raw.Images, &keyed); err != nil {
		return fmt.Errorf("images must be an array or an object: %w", err)
	}
	names := make([]string, 0, len(keyed))
	for name := range keyed {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return imageIndex(names[i]) < imageIndex(names[j])
	})
	for _, name := range names {
		e.Keys = append(e.Keys, keyed[name])
	}
	return nil
}

func imageIndex(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "image"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
