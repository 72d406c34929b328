package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appevents "github.com/FeroHriadel/tripiabackend/application/events"
	"github.com/FeroHriadel/tripiabackend/application/ports"
	"github.com/FeroHriadel/tripiabackend/application/ports/mocks"
	"github.com/FeroHriadel/tripiabackend/domain/entities"
	"github.com/FeroHriadel/tripiabackend/domain/events"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

type stubDispatcher struct {
	envelopes []events.Envelope
}

func (d *stubDispatcher) Dispatch(ctx context.Context, envelopes ...events.Envelope) appevents.Dispatched {
	d.envelopes = append(d.envelopes, envelopes...)
	out := appevents.Dispatched{}
	for _, env := range envelopes {
		out.Published = append(out.Published, env.ID)
	}
	return out
}

type fixture struct {
	svc         *Service
	connections *mocks.MockConnectionRepository
	posts       *mocks.MockPostRepository
	groups      *mocks.MockGroupRepository
	notifier    *mocks.MockNotifier
	dispatcher  *stubDispatcher
}

func newFixture() *fixture {
	f := &fixture{
		connections: new(mocks.MockConnectionRepository),
		posts:       new(mocks.MockPostRepository),
		groups:      new(mocks.MockGroupRepository),
		notifier:    new(mocks.MockNotifier),
		dispatcher:  &stubDispatcher{},
	}
	f.svc = NewService(f.connections, f.posts, f.groups, f.notifier, f.dispatcher, nil, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

var hikers = &entities.Group{ID: "g-1", CreatedBy: "owner@example.com", Members: []string{"owner@example.com", "member@example.com"}}

func TestService_Connect(t *testing.T) {
	ctx := context.Background()

	t.Run("member connects", func(t *testing.T) {
		f := newFixture()
		f.groups.On("FindByID", ctx, "g-1").Return(hikers, nil)
		f.connections.On("Save", ctx, mock.AnythingOfType("*entities.Connection")).Return(nil)

		conn, err := f.svc.Connect(ctx, "conn-1", "g-1", "Member@example.com")

		require.NoError(t, err)
		assert.Equal(t, "member@example.com", conn.Email)
		assert.Equal(t, f.svc.now().Add(entities.ConnectionTTL).Unix(), conn.TTL)
	})

	t.Run("non member is forbidden", func(t *testing.T) {
		f := newFixture()
		f.groups.On("FindByID", ctx, "g-1").Return(hikers, nil)

		_, err := f.svc.Connect(ctx, "conn-1", "g-1", "stranger@example.com")

		assert.True(t, pkgerrors.IsForbidden(err))
		f.connections.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("group id required", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Connect(ctx, "conn-1", "", "member@example.com")
		assert.Equal(t, "groupId is required", pkgerrors.PublicMessage(err))
	})

	t.Run("unknown group", func(t *testing.T) {
		f := newFixture()
		f.groups.On("FindByID", ctx, "g-x").Return(nil, pkgerrors.NewNotFoundError("Group"))
		_, err := f.svc.Connect(ctx, "conn-1", "g-x", "member@example.com")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestService_CreatePost(t *testing.T) {
	ctx := context.Background()
	input := CreatePostInput{PostedBy: "member@example.com", GroupID: "g-1", Body: "hello", Images: []string{"a.png", ""}}

	t.Run("broadcasts to all connections and removes stale ones", func(t *testing.T) {
		f := newFixture()
		f.groups.On("FindByID", ctx, "g-1").Return(hikers, nil)
		f.connections.On("ListByGroup", ctx, "g-1").Return([]*entities.Connection{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}, nil)
		f.posts.On("Save", ctx, mock.Anything).Return(nil)

		var sent []byte
		f.notifier.On("Send", ctx, "c1", mock.Anything).Run(func(args mock.Arguments) {
			sent = args.Get(2).([]byte)
		}).Return(nil)
		f.notifier.On("Send", ctx, "c2", mock.Anything).Return(ports.ErrConnectionGone)
		f.notifier.On("Send", ctx, "c3", mock.Anything).Return(errors.New("throttled"))
		f.connections.On("Delete", ctx, "c2").Return(nil)

		result, err := f.svc.CreatePost(ctx, "member@example.com", false, input)

		require.NoError(t, err)
		assert.Equal(t, BroadcastReport{Delivered: 1, Failed: 1, Stale: 1}, result.Broadcast)
		assert.Equal(t, []string{"a.png"}, result.Post.Images)
		f.connections.AssertCalled(t, "Delete", ctx, "c2")

		var msg struct {
			Action string         `json:"action"`
			Post   entities.Post `json:"post"`
		}
		require.NoError(t, json.Unmarshal(sent, &msg))
		assert.Equal(t, ActionPostCreated, msg.Action)
		assert.Equal(t, result.Post.ID, msg.Post.ID)
	})

	t.Run("no connections still saves", func(t *testing.T) {
		f := newFixture()
		f.groups.On("FindByID", ctx, "g-1").Return(hikers, nil)
		f.connections.On("ListByGroup", ctx, "g-1").Return([]*entities.Connection{}, nil)
		f.posts.On("Save", ctx, mock.Anything).Return(nil)

		result, err := f.svc.CreatePost(ctx, "member@example.com", false, input)

		require.NoError(t, err)
		assert.Equal(t, BroadcastReport{}, result.Broadcast)
		f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing body", func(t *testing.T) {
		f := newFixture()
		in := input
		in.Body = ""
		_, err := f.svc.CreatePost(ctx, "member@example.com", false, in)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("cannot post as someone else", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreatePost(ctx, "owner@example.com", false, input)
		assert.True(t, pkgerrors.IsForbidden(err))
	})
}

func TestService_DeletePost(t *testing.T) {
	ctx := context.Background()
	post := &entities.Post{ID: "p-1", GroupID: "g-1", PostedBy: "member@example.com", Images: []string{"a.png", "b.png"}}

	t.Run("author deletes and images are queued", func(t *testing.T) {
		f := newFixture()
		f.posts.On("FindByID", ctx, "p-1").Return(post, nil)
		f.connections.On("ListByGroup", ctx, "g-1").Return([]*entities.Connection{{ID: "c1"}}, nil)
		var written []events.Envelope
		f.posts.On("Delete", ctx, "p-1", mock.Anything).Run(func(args mock.Arguments) {
			written = args.Get(2).([]events.Envelope)
		}).Return(nil)
		f.notifier.On("Send", ctx, "c1", []byte(`{"action":"postDelete","id":"p-1","ok":true}`)).Return(nil)

		result, err := f.svc.DeletePost(ctx, DeletePostInput{GroupID: "g-1", PostID: "p-1", Email: "member@example.com", ConnectionID: "c1"})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Broadcast.Delivered)
		require.Len(t, written, 1)
		evt, err := written[0].Decode()
		require.NoError(t, err)
		assert.Equal(t, events.DeleteImages{Keys: []string{"a.png", "b.png"}}, evt)
		assert.Equal(t, written, f.dispatcher.envelopes)
		f.notifier.AssertExpectations(t)
	})

	t.Run("forbidden delete notifies requester", func(t *testing.T) {
		f := newFixture()
		f.posts.On("FindByID", ctx, "p-1").Return(post, nil)
		f.notifier.On("Send", ctx, "c9", []byte(`{"action":"postDelete","error":"Failed to delete post"}`)).Return(nil)

		_, err := f.svc.DeletePost(ctx, DeletePostInput{GroupID: "g-1", PostID: "p-1", Email: "owner@example.com", ConnectionID: "c9"})

		assert.True(t, pkgerrors.IsForbidden(err))
		f.notifier.AssertExpectations(t)
		f.posts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin deletes post without images", func(t *testing.T) {
		f := newFixture()
		f.posts.On("FindByID", ctx, "p-2").Return(&entities.Post{ID: "p-2", GroupID: "g-1", PostedBy: "member@example.com"}, nil)
		f.connections.On("ListByGroup", ctx, "g-1").Return([]*entities.Connection{}, nil)
		f.posts.On("Delete", ctx, "p-2", mock.Anything).Return(nil)

		_, err := f.svc.DeletePost(ctx, DeletePostInput{GroupID: "g-1", PostID: "p-2", Email: "admin@example.com", IsAdmin: true})

		require.NoError(t, err)
		assert.Empty(t, f.dispatcher.envelopes)
	})
}

func TestService_ListPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.posts.On("ListByGroup", ctx, "g-1").Return([]*entities.Post{
		{ID: "old", CreatedAt: "2024-05-01T10:00:00.000Z"},
		{ID: "new", CreatedAt: "2024-05-01T11:00:00.000Z"},
	}, nil)

	posts, err := f.svc.ListPosts(ctx, "g-1")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].ID)

	_, err = f.svc.ListPosts(ctx, " ")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestService_Disconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.connections.On("Delete", ctx, "conn-1").Return(nil)

	require.NoError(t, f.svc.Disconnect(ctx, "conn-1"))
	assert.Error(t, f.svc.Disconnect(ctx, ""))
}
