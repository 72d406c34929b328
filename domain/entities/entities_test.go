package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestApplyMembership(t *testing.T) {
	tests := []struct {
		name        string
		list        []string
		item        string
		intent      MembershipIntent
		want        []string
		wantChanged bool
	}{
		{"join adds", []string{"a"}, "b", IntentJoin, []string{"a", "b"}, true},
		{"join is idempotent", []string{"a", "b"}, "B", IntentJoin, []string{"a", "b"}, false},
		{"leave removes", []string{"a", "b", "c"}, "b", IntentLeave, []string{"a", "c"}, true},
		{"leave is idempotent", []string{"a"}, "b", IntentLeave, []string{"a"}, false},
		{"toggle adds when absent", nil, "a", IntentToggle, []string{"a"}, true},
		{"toggle removes when present", []string{"a"}, "a", IntentToggle, []string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := ApplyMembership(tt.list, tt.item, tt.intent)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyMembership_DoesNotMutateInput(t *testing.T) {
	list := []string{"a", "b", "c"}
	_, _ = ApplyMembership(list, "a", IntentLeave)
	assert.Equal(t, []string{"a", "b", "c"}, list)
}

func TestParseIntent(t *testing.T) {
	i, err := ParseIntent("")
	require.NoError(t, err)
	assert.Equal(t, IntentToggle, i)

	i, err = ParseIntent(" JOIN ")
	require.NoError(t, err)
	assert.Equal(t, IntentJoin, i)

	_, err = ParseIntent("kick")
	assert.Error(t, err)
}

func TestNewTrip(t *testing.T) {
	trip, err := NewTrip(TripDetails{
		Name:          "Morning Hike",
		DepartureTime: "07:00",
		DepartureFrom: "Station",
		Destination:   "Peak",
		Description:   "Easy WALK",
		KeyWords:      "Hills, Forest",
	}, "Jane@Example.com", "JaneD", fixedNow)
	require.NoError(t, err)

	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, "jane@example.com", trip.CreatedBy)
	assert.Equal(t, "morning hike", trip.NameLower)
	assert.Equal(t, "easy walk", trip.DescriptionLower)
	assert.Equal(t, "hills, forest", trip.KeyWords)
	assert.Equal(t, "janed", trip.NicknameLower)
	assert.Equal(t, TypeTrip, trip.Type)
	assert.Equal(t, "2024-05-01T10:00:00Z", trip.CreatedAt)

	assert.True(t, trip.Matches("HIKE"))
	assert.True(t, trip.Matches("forest"))
	assert.True(t, trip.Matches("jane"))
	assert.False(t, trip.Matches("beach"))

	assert.True(t, trip.CanBeModifiedBy("JANE@example.com", false))
	assert.False(t, trip.CanBeModifiedBy("bob@example.com", false))
	assert.True(t, trip.CanBeModifiedBy("bob@example.com", true))

	_, err = NewTrip(TripDetails{}, "", "", fixedNow)
	assert.Error(t, err)
}

func TestGroupMembership(t *testing.T) {
	g, err := NewGroup(" Climbers ", "Owner@Example.com", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Climbers", g.Name)
	assert.Equal(t, []string{"owner@example.com"}, g.Members)
	assert.True(t, g.IsCreator("OWNER@example.com"))

	assert.True(t, g.UpdateMembership("Bob@Example.com", IntentJoin, fixedNow))
	assert.True(t, g.IsMember("bob@example.com"))
	assert.False(t, g.UpdateMembership("bob@example.com", IntentJoin, fixedNow))
	assert.True(t, g.UpdateMembership("bob@example.com", IntentToggle, fixedNow))
	assert.False(t, g.IsMember("bob@example.com"))

	_, err = NewGroup("  ", "x@y.z", fixedNow)
	assert.Error(t, err)
}

func TestNewUser(t *testing.T) {
	u := NewUser(" Jane.Doe@Example.com", fixedNow)
	assert.Equal(t, "jane.doe@example.com", u.Email)
	assert.Equal(t, "jane.doe", u.Nickname)
	assert.Empty(t, u.Groups)

	assert.True(t, u.UpdateGroups("g1", IntentJoin, fixedNow))
	assert.False(t, u.UpdateGroups("g1", IntentJoin, fixedNow))
	assert.True(t, u.UpdateGroups("g1", IntentLeave, fixedNow))
}

func TestNewPost_CreatedAtSortsLexically(t *testing.T) {
	a := NewPost("g", "x", "a", nil, fixedNow.Add(100*time.Millisecond))
	b := NewPost("g", "x", "b", nil, fixedNow.Add(120*time.Millisecond))
	assert.Less(t, a.CreatedAt, b.CreatedAt)
	assert.NotNil(t, a.Images)
}

func TestCategoryName(t *testing.T) {
	c, err := NewCategory(" Hiking ", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "hiking", c.Name)
	assert.Error(t, c.Rename("", fixedNow))
}

func TestNewConnection(t *testing.T) {
	c := NewConnection("abc=", "g1", "A@B.C", fixedNow)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, fixedNow.Add(ConnectionTTL).Unix(), c.TTL)
}
