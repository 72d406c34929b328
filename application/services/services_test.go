package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/application/ports/mocks"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	"github.com/FeroHriadel/tripiabackend/pkg/common"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	dispatched []events.Envelope
	deferAll   bool
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, envelopes ...events.Envelope) appevents.Dispatched {
	d.dispatched = append(d.dispatched, envelopes...)
	var out appevents.Dispatched
	for _, env := range envelopes {
		if d.deferAll {
			out.Deferred = append(out.Deferred, env.ID)
		} else {
			out.Published = append(out.Published, env.ID)
		}
	}
	return out
}

func validDetails() entities.TripDetails {
	return entities.TripDetails{
		Name:          "Ridge walk",
		DepartureTime: "08:00",
		DepartureFrom: "Station",
		Destination:   "Summit",
		Description:   "Easy hike",
		KeyWords:      "Hike, Ridge",
	}
}

func TestTripService_Create(t *testing.T) {
	ctx := context.Background()
	caller := Caller{Email: "jane@example.com"}

	t.Run("copies nickname from profile", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		users := new(mocks.MockUserRepository)
		svc := NewTripService(trips, users, zap.NewNop())
		svc.now = func() time.Time { return fixedNow }

		users.On("FindByEmail", ctx, "jane@example.com").Return(&entities.User{Email: "jane@example.com", Nickname: "JaneD"}, nil)
		trips.On("Save", ctx, mock.AnythingOfType("*entities.Trip")).Return(nil)

		trip, err := svc.Create(ctx, caller, validDetails())

		require.NoError(t, err)
		assert.Equal(t, "JaneD", trip.Nickname)
		assert.Equal(t, "janed", trip.NicknameLower)
		assert.Equal(t, "hike, ridge", trip.KeyWords)
		assert.Equal(t, "2024-05-01T12:00:00Z", trip.CreatedAt)
		trips.AssertExpectations(t)
	})

	t.Run("missing profile falls back to email prefix", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		users := new(mocks.MockUserRepository)
		svc := NewTripService(trips, users, zap.NewNop())

		users.On("FindByEmail", ctx, "jane@example.com").Return(nil, pkgerrors.NewNotFoundError("User"))
		trips.On("Save", ctx, mock.Anything).Return(nil)

		trip, err := svc.Create(ctx, caller, validDetails())

		require.NoError(t, err)
		assert.Equal(t, "jane", trip.Nickname)
	})

	t.Run("missing required fields", func(t *testing.T) {
		svc := NewTripService(new(mocks.MockTripRepository), new(mocks.MockUserRepository), zap.NewNop())

		_, err := svc.Create(ctx, caller, entities.TripDetails{Name: "x"})

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Contains(t, err.Error(), "departureTime is required")
	})
}

func TestTripService_Update(t *testing.T) {
	ctx := context.Background()
	existing := func() *entities.Trip {
		return &entities.Trip{ID: "trip-1", CreatedBy: "owner@example.com", Nickname: "owner"}
	}

	t.Run("owner updates", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		svc := NewTripService(trips, new(mocks.MockUserRepository), zap.NewNop())
		trips.On("FindByID", ctx, "trip-1").Return(existing(), nil)
		trips.On("Save", ctx, mock.Anything).Return(nil)

		trip, err := svc.Update(ctx, Caller{Email: "OWNER@example.com"}, "trip-1", validDetails())

		require.NoError(t, err)
		assert.Equal(t, "Ridge walk", trip.Name)
		assert.Equal(t, "owner", trip.Nickname)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		svc := NewTripService(trips, new(mocks.MockUserRepository), zap.NewNop())
		trips.On("FindByID", ctx, "trip-1").Return(existing(), nil)

		_, err := svc.Update(ctx, Caller{Email: "other@example.com"}, "trip-1", validDetails())

		assert.True(t, pkgerrors.IsForbidden(err))
		trips.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("admin may update", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		svc := NewTripService(trips, new(mocks.MockUserRepository), zap.NewNop())
		trips.On("FindByID", ctx, "trip-1").Return(existing(), nil)
		trips.On("Save", ctx, mock.Anything).Return(nil)

		_, err := svc.Update(ctx, Caller{Email: "admin@example.com", IsAdmin: true}, "trip-1", validDetails())

		assert.NoError(t, err)
	})
}

func TestTripService_Search(t *testing.T) {
	ctx := context.Background()
	trips := new(mocks.MockTripRepository)
	svc := NewTripService(trips, new(mocks.MockUserRepository), zap.NewNop())
	page := common.PageRequest{PageSize: 3}

	trips.On("Search", ctx, "ridge", page).Return(common.Page[*entities.Trip]{Items: []*entities.Trip{{ID: "t1"}}}, nil)
	trips.On("List", ctx, page).Return(common.Page[*entities.Trip]{}, nil)

	got, err := svc.Search(ctx, "  RIDGE ", page)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	_, err = svc.Search(ctx, " ", page)
	require.NoError(t, err)
	trips.AssertCalled(t, "List", ctx, page)
}

func TestCommentService_Create(t *testing.T) {
	ctx := context.Background()
	input := CreateCommentInput{Body: "See you there", Trip: "trip-1", CreatedAt: "2024-05-01T10:00:00Z"}

	t.Run("trip must exist", func(t *testing.T) {
		comments := new(mocks.MockCommentRepository)
		trips := new(mocks.MockTripRepository)
		svc := NewCommentService(comments, trips, &recordingDispatcher{}, zap.NewNop())
		trips.On("FindByID", ctx, "trip-1").Return(nil, pkgerrors.NewNotFoundError("Trip"))

		_, err := svc.Create(ctx, Caller{Email: "jane@example.com"}, input)

		require.Error(t, err)
		assert.Equal(t, "Trip not found", pkgerrors.PublicMessage(err))
		comments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("attributed to caller", func(t *testing.T) {
		comments := new(mocks.MockCommentRepository)
		trips := new(mocks.MockTripRepository)
		svc := NewCommentService(comments, trips, &recordingDispatcher{}, zap.NewNop())
		trips.On("FindByID", ctx, "trip-1").Return(&entities.Trip{ID: "trip-1"}, nil)
		comments.On("Save", ctx, mock.Anything).Return(nil)

		comment, err := svc.Create(ctx, Caller{Email: "Jane@example.com"}, input)

		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", comment.By)
		assert.Equal(t, "2024-05-01T10:00:00Z", comment.CreatedAt)
	})

	t.Run("cannot impersonate", func(t *testing.T) {
		svc := NewCommentService(new(mocks.MockCommentRepository), new(mocks.MockTripRepository), &recordingDispatcher{}, zap.NewNop())
		in := input
		in.By = "someone@example.com"

		_, err := svc.Create(ctx, Caller{Email: "jane@example.com"}, in)

		assert.True(t, pkgerrors.IsForbidden(err))
	})
}

func TestCommentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("image goes to outbox with the delete", func(t *testing.T) {
		comments := new(mocks.MockCommentRepository)
		dispatcher := &recordingDispatcher{}
		svc := NewCommentService(comments, new(mocks.MockTripRepository), dispatcher, zap.NewNop())

		comments.On("FindByID", ctx, "c-1").Return(&entities.Comment{ID: "c-1", By: "jane@example.com", Image: "c.png"}, nil)
		var written []events.Envelope
		comments.On("Delete", ctx, "c-1", mock.Anything).Run(func(args mock.Arguments) {
			written = args.Get(2).([]events.Envelope)
		}).Return(nil)

		result, err := svc.Delete(ctx, Caller{Email: "jane@example.com"}, "c-1")

		require.NoError(t, err)
		assert.Equal(t, "c-1", result.ID)
		require.Len(t, written, 1)
		evt, err := written[0].Decode()
		require.NoError(t, err)
		assert.Equal(t, events.DeleteImages{Keys: []string{"c.png"}}, evt)
		assert.Equal(t, written, dispatcher.dispatched)
	})

	t.Run("comment without image dispatches nothing", func(t *testing.T) {
		comments := new(mocks.MockCommentRepository)
		dispatcher := &recordingDispatcher{}
		svc := NewCommentService(comments, new(mocks.MockTripRepository), dispatcher, zap.NewNop())

		comments.On("FindByID", ctx, "c-2").Return(&entities.Comment{ID: "c-2", By: "jane@example.com"}, nil)
		comments.On("Delete", ctx, "c-2", mock.Anything).Return(nil)

		_, err := svc.Delete(ctx, Caller{Email: "admin@example.com", IsAdmin: true}, "c-2")

		require.NoError(t, err)
		assert.Empty(t, dispatcher.dispatched)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		comments := new(mocks.MockCommentRepository)
		svc := NewCommentService(comments, new(mocks.MockTripRepository), &recordingDispatcher{}, zap.NewNop())
		comments.On("FindByID", ctx, "c-1").Return(&entities.Comment{ID: "c-1", By: "jane@example.com"}, nil)

		_, err := svc.Delete(ctx, Caller{Email: "mallory@example.com"}, "c-1")

		require.Error(t, err)
		assert.Equal(t, "You are not authorized to delete this comment", pkgerrors.PublicMessage(err))
	})

	t.Run("id is required", func(t *testing.T) {
		svc := NewCommentService(new(mocks.MockCommentRepository), new(mocks.MockTripRepository), &recordingDispatcher{}, zap.NewNop())
		_, err := svc.Delete(ctx, Caller{Email: "jane@example.com"}, "")
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func newGroupService() (*GroupService, *mocks.MockGroupRepository, *mocks.MockInvitationRepository, *mocks.MockUserRepository, *recordingDispatcher) {
	groups := new(mocks.MockGroupRepository)
	invitations := new(mocks.MockInvitationRepository)
	users := new(mocks.MockUserRepository)
	dispatcher := &recordingDispatcher{}
	svc := NewGroupService(groups, invitations, users, dispatcher, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, groups, invitations, users, dispatcher
}

func decodeMembership(t *testing.T, env events.Envelope) events.UpdateUserGroups {
	t.Helper()
	evt, err := env.Decode()
	require.NoError(t, err)
	update, ok := evt.(events.UpdateUserGroups)
	require.True(t, ok)
	return update
}

func TestGroupService_Create(t *testing.T) {
	ctx := context.Background()
	svc, groups, _, _, dispatcher := newGroupService()

	var written []events.Envelope
	groups.On("Save", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(2).([]events.Envelope)
	}).Return(nil)

	group, err := svc.Create(ctx, Caller{Email: "Owner@example.com"}, " Hikers ")

	require.NoError(t, err)
	assert.Equal(t, "Hikers", group.Name)
	assert.Equal(t, []string{"owner@example.com"}, group.Members)
	require.Len(t, written, 1)
	assert.Equal(t, events.UpdateUserGroups{UserEmail: "owner@example.com", GroupID: group.ID, Intent: entities.IntentJoin}, decodeMembership(t, written[0]))
	assert.Len(t, dispatcher.dispatched, 1)

	_, err = svc.Create(ctx, Caller{Email: "owner@example.com"}, "  ")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGroupService_Update(t *testing.T) {
	ctx := context.Background()
	newGroup := func() *entities.Group {
		return &entities.Group{ID: "g-1", Name: "Hikers", CreatedBy: "owner@example.com", Members: []string{"owner@example.com", "member@example.com"}}
	}

	t.Run("creator renames", func(t *testing.T) {
		svc, groups, _, _, dispatcher := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)
		groups.On("Save", ctx, mock.Anything, mock.Anything).Return(nil)

		group, err := svc.Update(ctx, Caller{Email: "owner@example.com"}, "g-1", UpdateGroupInput{Name: "Climbers"})

		require.NoError(t, err)
		assert.Equal(t, "Climbers", group.Name)
		assert.Empty(t, dispatcher.dispatched)
	})

	t.Run("member cannot rename", func(t *testing.T) {
		svc, groups, _, _, _ := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)

		_, err := svc.Update(ctx, Caller{Email: "member@example.com"}, "g-1", UpdateGroupInput{Name: "Climbers"})

		assert.True(t, pkgerrors.IsForbidden(err))
	})

	t.Run("accepting invitation adds invitee and deletes invitation", func(t *testing.T) {
		svc, groups, invitations, _, dispatcher := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)
		invitations.On("FindByID", ctx, "inv-1").Return(&entities.Invitation{ID: "inv-1", GroupID: "g-1", Invitee: "new@example.com"}, nil)
		var written []events.Envelope
		groups.On("Save", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			written = args.Get(2).([]events.Envelope)
		}).Return(nil)
		invitations.On("Delete", ctx, "inv-1").Return(nil)

		group, err := svc.Update(ctx, Caller{Email: "new@example.com"}, "g-1", UpdateGroupInput{InvitationID: "inv-1"})

		require.NoError(t, err)
		assert.Contains(t, group.Members, "new@example.com")
		require.Len(t, written, 1)
		assert.Equal(t, entities.IntentJoin, decodeMembership(t, written[0]).Intent)
		assert.Len(t, dispatcher.dispatched, 1)
		invitations.AssertExpectations(t)
	})

	t.Run("missing invitation", func(t *testing.T) {
		svc, groups, invitations, _, _ := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)
		invitations.On("FindByID", ctx, "inv-x").Return(nil, pkgerrors.NewNotFoundError("Invitation"))

		_, err := svc.Update(ctx, Caller{Email: "new@example.com"}, "g-1", UpdateGroupInput{InvitationID: "inv-x"})

		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Equal(t, "Invitation not found", pkgerrors.PublicMessage(err))
	})

	t.Run("toggle removes present member", func(t *testing.T) {
		svc, groups, _, _, dispatcher := newGroupService()
		dispatcher.deferAll = true
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)
		var written []events.Envelope
		groups.On("Save", ctx, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			written = args.Get(2).([]events.Envelope)
		}).Return(nil)

		group, err := svc.Update(ctx, Caller{Email: "member@example.com"}, "g-1", UpdateGroupInput{Email: "member@example.com"})

		require.NoError(t, err)
		assert.Equal(t, []string{"owner@example.com"}, group.Members)
		require.Len(t, written, 1)
		assert.Equal(t, events.UpdateUserGroups{UserEmail: "member@example.com", GroupID: "g-1", Intent: entities.IntentLeave}, decodeMembership(t, written[0]))
	})

	t.Run("idempotent join saves nothing", func(t *testing.T) {
		svc, groups, _, _, dispatcher := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)

		group, err := svc.Update(ctx, Caller{Email: "owner@example.com"}, "g-1", UpdateGroupInput{Email: "member@example.com", Intent: "join"})

		require.NoError(t, err)
		assert.Len(t, group.Members, 2)
		groups.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, dispatcher.dispatched)
	})

	t.Run("non member cannot change membership", func(t *testing.T) {
		svc, groups, _, _, _ := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)

		_, err := svc.Update(ctx, Caller{Email: "stranger@example.com"}, "g-1", UpdateGroupInput{Email: "stranger@example.com"})

		assert.True(t, pkgerrors.IsForbidden(err))
	})

	t.Run("unknown intent", func(t *testing.T) {
		svc, groups, _, _, _ := newGroupService()
		groups.On("FindByID", ctx, "g-1").Return(newGroup(), nil)

		_, err := svc.Update(ctx, Caller{Email: "owner@example.com"}, "g-1", UpdateGroupInput{Email: "x@example.com", Intent: "kick"})

		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("group not found", func(t *testing.T) {
		svc, groups, _, _, _ := newGroupService()
		groups.On("FindByID", ctx, "g-x").Return(nil, pkgerrors.NewNotFoundError("Group"))

		_, err := svc.Update(ctx, Caller{Email: "owner@example.com"}, "g-x", UpdateGroupInput{Name: "x"})

		assert.Equal(t, 404, pkgerrors.StatusCode(err))
	})
}

func TestGroupService_ListForUser(t *testing.T) {
	ctx := context.Background()
	svc, groups, _, users, _ := newGroupService()
	users.On("FindByEmail", ctx, "jane@example.com").Return(&entities.User{Groups: []string{"g-1", "", "g-2"}}, nil)
	groups.On("FindByIDs", ctx, []string{"g-1", "g-2"}).Return([]*entities.Group{{ID: "g-1"}, {ID: "g-2"}}, nil)
	users.On("FindByEmail", ctx, "ghost@example.com").Return(nil, pkgerrors.NewNotFoundError("User"))

	got, err := svc.ListForUser(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ListForUser(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInvitationService_Create(t *testing.T) {
	ctx := context.Background()
	caller := Caller{Email: "owner@example.com"}
	group := &entities.Group{ID: "g-1", Name: "Hikers", Members: []string{"owner@example.com", "member@example.com"}}
	input := CreateInvitationInput{
		GroupID:           "g-1",
		GroupName:         "Hikers",
		InvitedByEmail:    "owner@example.com",
		InvitedByNickname: "owner",
		Invitee:           "New@example.com",
	}

	t.Run("creates invitation", func(t *testing.T) {
		invitations := new(mocks.MockInvitationRepository)
		groups := new(mocks.MockGroupRepository)
		svc := NewInvitationService(invitations, groups, zap.NewNop())
		groups.On("FindByID", ctx, "g-1").Return(group, nil)
		invitations.On("ListByInvitee", ctx, "new@example.com").Return([]*entities.Invitation{{GroupID: "g-2"}}, nil)
		invitations.On("Save", ctx, mock.Anything).Return(nil)

		inv, err := svc.Create(ctx, caller, input)

		require.NoError(t, err)
		assert.Equal(t, "new@example.com", inv.Invitee)
		assert.Equal(t, "Hikers", inv.GroupName)
		assert.Equal(t, "owner", inv.InvitedByNickname)
	})

	t.Run("inviter must be caller", func(t *testing.T) {
		svc := NewInvitationService(new(mocks.MockInvitationRepository), new(mocks.MockGroupRepository), zap.NewNop())

		_, err := svc.Create(ctx, Caller{Email: "other@example.com"}, input)

		assert.Equal(t, 401, pkgerrors.StatusCode(err))
	})

	t.Run("duplicate", func(t *testing.T) {
		invitations := new(mocks.MockInvitationRepository)
		groups := new(mocks.MockGroupRepository)
		svc := NewInvitationService(invitations, groups, zap.NewNop())
		groups.On("FindByID", ctx, "g-1").Return(group, nil)
		invitations.On("ListByInvitee", ctx, "new@example.com").Return([]*entities.Invitation{{GroupID: "g-1"}}, nil)

		_, err := svc.Create(ctx, caller, input)

		require.Error(t, err)
		assert.Equal(t, "Invitation already exists", pkgerrors.PublicMessage(err))
		assert.Equal(t, 400, pkgerrors.StatusCode(err))
	})

	t.Run("already a member", func(t *testing.T) {
		groups := new(mocks.MockGroupRepository)
		svc := NewInvitationService(new(mocks.MockInvitationRepository), groups, zap.NewNop())
		groups.On("FindByID", ctx, "g-1").Return(group, nil)
		in := input
		in.Invitee = "member@example.com"

		_, err := svc.Create(ctx, caller, in)

		assert.Equal(t, "User is already a member", pkgerrors.PublicMessage(err))
	})
}

func TestInvitationService_Delete(t *testing.T) {
	ctx := context.Background()
	invitations := new(mocks.MockInvitationRepository)
	svc := NewInvitationService(invitations, new(mocks.MockGroupRepository), zap.NewNop())
	invitations.On("FindByID", ctx, "inv-1").Return(&entities.Invitation{ID: "inv-1", Invitee: "new@example.com"}, nil)
	invitations.On("Delete", ctx, "inv-1").Return(nil)

	err := svc.Delete(ctx, Caller{Email: "other@example.com"}, "inv-1")
	assert.True(t, pkgerrors.IsForbidden(err))

	require.NoError(t, svc.Delete(ctx, Caller{Email: "new@example.com"}, "inv-1"))
	invitations.AssertNumberOfCalls(t, "Delete", 1)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("self update", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		svc := NewUserService(users, nil, zap.NewNop())
		users.On("FindByEmail", ctx, "jane@example.com").Return(&entities.User{Email: "jane@example.com", Nickname: "jane"}, nil)
		users.On("Save", ctx, mock.Anything).Return(nil)

		user, err := svc.Update(ctx, Caller{Email: "jane@example.com"}, UpdateUserInput{Email: "Jane@example.com", Nickname: "JD", ProfilePicture: "p.png"})

		require.NoError(t, err)
		assert.Equal(t, "JD", user.Nickname)
		assert.Equal(t, "jd", user.NicknameLower)
		assert.Equal(t, "p.png", user.ProfilePicture)
	})

	t.Run("someone else is forbidden unless admin", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		svc := NewUserService(users, nil, zap.NewNop())
		in := UpdateUserInput{Email: "jane@example.com", Nickname: "JD"}

		_, err := svc.Update(ctx, Caller{Email: "other@example.com"}, in)
		assert.True(t, pkgerrors.IsForbidden(err))

		users.On("FindByEmail", ctx, "jane@example.com").Return(nil, pkgerrors.NewNotFoundError("User"))
		_, err = svc.Update(ctx, Caller{Email: "admin@example.com", IsAdmin: true}, in)
		assert.Equal(t, "User not found", pkgerrors.PublicMessage(err))
	})
}

func TestUserService_CreateFromSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates profile and sets nickname", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		attrs := new(mocks.MockUserAttributeUpdater)
		svc := NewUserService(users, attrs, zap.NewNop())
		users.On("Create", ctx, mock.Anything).Return(nil)
		attrs.On("SetNickname", ctx, "pool-1", "user-1", "jane").Return(nil)

		user, err := svc.CreateFromSignup(ctx, SignupInput{Email: "Jane@Example.com", UserPoolID: "pool-1", Username: "user-1"})

		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, []string{}, user.Groups)
		attrs.AssertExpectations(t)
	})

	t.Run("existing profile and attribute failure are tolerated", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		attrs := new(mocks.MockUserAttributeUpdater)
		svc := NewUserService(users, attrs, zap.NewNop())
		users.On("Create", ctx, mock.Anything).Return(pkgerrors.NewConflictError("User already exists"))
		attrs.On("SetNickname", ctx, "pool-1", "user-1", "jane").Return(errors.New("throttled"))

		_, err := svc.CreateFromSignup(ctx, SignupInput{Email: "jane@example.com", UserPoolID: "pool-1", Username: "user-1"})

		assert.NoError(t, err)
	})

	t.Run("storage failure", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		svc := NewUserService(users, nil, zap.NewNop())
		users.On("Create", ctx, mock.Anything).Return(pkgerrors.NewDatabaseError("create user", errors.New("boom")))

		_, err := svc.CreateFromSignup(ctx, SignupInput{Email: "jane@example.com"})

		assert.Error(t, err)
	})
}

func TestUserService_BatchGet(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserRepository)
	svc := NewUserService(users, nil, zap.NewNop())

	_, err := svc.BatchGet(ctx, []string{" "})
	assert.Equal(t, "emails are required", pkgerrors.PublicMessage(err))

	users.On("FindByEmails", ctx, []string{"a@b.c"}).Return([]*entities.User{{Email: "a@b.c"}}, nil)
	got, err := svc.BatchGet(ctx, []string{"A@b.c", "a@b.c"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFavoriteTripsService(t *testing.T) {
	ctx := context.Background()
	favorites := new(mocks.MockFavoriteTripsRepository)
	svc := NewFavoriteTripsService(favorites, zap.NewNop())

	favorites.On("FindByEmail", ctx, "jane@example.com").Return(nil, pkgerrors.NewNotFoundError("Favorite trips"))
	got, err := svc.Get(ctx, "Jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, got.TripIDs)

	favorites.On("Save", ctx, mock.Anything).Return(nil)
	saved, err := svc.Set(ctx, Caller{Email: "jane@example.com"}, []string{"t1", "", "t1", "t2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, saved.TripIDs)

	_, err = svc.Set(ctx, Caller{Email: "jane@example.com"}, nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	admin := Caller{Email: "admin@example.com", IsAdmin: true}

	t.Run("admin only", func(t *testing.T) {
		svc := NewCategoryService(new(mocks.MockCategoryRepository), zap.NewNop())
		_, err := svc.Create(ctx, Caller{Email: "jane@example.com"}, "hiking")
		assert.True(t, pkgerrors.IsForbidden(err))
	})

	t.Run("create normalizes name", func(t *testing.T) {
		categories := new(mocks.MockCategoryRepository)
		svc := NewCategoryService(categories, zap.NewNop())
		categories.On("FindByName", ctx, "hiking").Return(nil, pkgerrors.NewNotFoundError("Category"))
		categories.On("Save", ctx, mock.Anything).Return(nil)

		category, err := svc.Create(ctx, admin, "  Hiking ")

		require.NoError(t, err)
		assert.Equal(t, "hiking", category.Name)
	})

	t.Run("duplicate name is 403", func(t *testing.T) {
		categories := new(mocks.MockCategoryRepository)
		svc := NewCategoryService(categories, zap.NewNop())
		categories.On("FindByName", ctx, "hiking").Return(&entities.Category{ID: "c-1", Name: "hiking"}, nil)

		_, err := svc.Create(ctx, admin, "HIKING")

		assert.Equal(t, 403, pkgerrors.StatusCode(err))
		assert.Equal(t, "Category with such name already exists", pkgerrors.PublicMessage(err))
	})

	t.Run("rename to own name is allowed", func(t *testing.T) {
		categories := new(mocks.MockCategoryRepository)
		svc := NewCategoryService(categories, zap.NewNop())
		categories.On("FindByID", ctx, "c-1").Return(&entities.Category{ID: "c-1", Name: "hiking"}, nil)
		categories.On("FindByName", ctx, "hiking").Return(&entities.Category{ID: "c-1", Name: "hiking"}, nil)
		categories.On("Save", ctx, mock.Anything).Return(nil)

		_, err := svc.Update(ctx, admin, "c-1", "Hiking")

		assert.NoError(t, err)
	})

	t.Run("delete missing category", func(t *testing.T) {
		categories := new(mocks.MockCategoryRepository)
		svc := NewCategoryService(categories, zap.NewNop())
		categories.On("FindByID", ctx, "c-x").Return(nil, pkgerrors.NewNotFoundError("Category"))

		err := svc.Delete(ctx, admin, "c-x")

		assert.True(t, pkgerrors.IsNotFound(err))
		categories.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestUploadService_CreateUploadLink(t *testing.T) {
	ctx := context.Background()
	images := new(mocks.MockImageStore)
	svc := NewUploadService(images, 0, zap.NewNop())
	svc.suffix = func() string { return "4242" }

	images.On("PresignUpload", ctx, "mytrip.jpg4242.png", DefaultUploadTTL).Return("https://bucket/presigned", nil)

	link, err := svc.CreateUploadLink(ctx, "my trip.jpg")
	require.NoError(t, err)
	assert.Equal(t, &UploadLink{URL: "https://bucket/presigned", Key: "mytrip.jpg4242.png"}, link)

	_, err = svc.CreateUploadLink(ctx, "   ")
	assert.Equal(t, "fileName is required", pkgerrors.PublicMessage(err))
}
