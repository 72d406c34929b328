package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FeroHriadel/tripiabackend/domain/entities"
	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []Event{
		DeleteImages{Keys: []string{"a.png", "b.png"}},
		DeleteCommentsForTrip{TripID: "trip-1"},
		BatchDeletePostsForGroup{GroupID: "group-1"},
		UpdateUserGroups{UserEmail: "a@b.c", GroupID: "group-1", Intent: entities.IntentLeave},
	}
	for _, evt := range tests {
		t.Run(string(evt.Kind()), func(t *testing.T) {
			env, err := NewEnvelope(evt, now)
			require.NoError(t, err)
			assert.NotEmpty(t, env.ID)
			assert.Equal(t, evt.Kind(), env.Kind)

			raw, err := json.Marshal(env)
			require.NoError(t, err)
			var back Envelope
			require.NoError(t, json.Unmarshal(raw, &back))

			got, err := back.Decode()
			require.NoError(t, err)
			if diff := cmp.Diff(evt, got); diff != "" {
				t.Errorf("decoded event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteImages_WireShape(t *testing.T) {
	raw, err := json.Marshal(DeleteImages{Keys: []string{"a.png", "b.png"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":{"image1":"a.png","image2":"b.png"}}`, string(raw))

	var e DeleteImages
	require.NoError(t, json.Unmarshal([]byte(`{"images":{"image10":"j","image2":"b","image1":"a"}}`), &e))
	assert.Equal(t, []string{"a", "b", "j"}, e.Keys)

	require.NoError(t, json.Unmarshal([]byte(`{"images":["x","y"]}`), &e))
	assert.Equal(t, []string{"x", "y"}, e.Keys)
}

func TestDecode_Rejections(t *testing.T) {
	_, err := Envelope{Kind: "Nope", Payload: json.RawMessage(`{}`)}.Decode()
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = Envelope{Kind: KindDeleteCommentsForTrip, Payload: json.RawMessage(`{"tripId":`)}.Decode()
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = Envelope{Kind: KindDeleteCommentsForTrip, Payload: json.RawMessage(`{}`)}.Decode()
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewEnvelope(UpdateUserGroups{UserEmail: "a", GroupID: "g", Intent: "kick"}, now)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 5*time.Second, p.Backoff(1))
	assert.Equal(t, 10*time.Second, p.Backoff(2))
	assert.Equal(t, 40*time.Second, p.Backoff(4))
	assert.Equal(t, 15*time.Minute, p.Backoff(20))
}

func TestOutboxEntry_Lifecycle(t *testing.T) {
	env, err := NewEnvelope(DeleteCommentsForTrip{TripID: "t"}, now)
	require.NoError(t, err)

	e := NewOutboxEntry(env, now, 30*time.Second)
	assert.Equal(t, OutboxPending, e.Status)
	assert.Equal(t, now.Add(30*time.Second), e.NextAttemptAt)

	p := RetryPolicy{BaseBackoff: time.Second, MaxBackoff: time.Minute, MaxAttempts: 3}
	e.RecordFailure(errors.New("throttled"), now, p)
	assert.Equal(t, OutboxPending, e.Status)
	assert.Equal(t, 1, e.Attempts)
	assert.Equal(t, now.Add(time.Second), e.NextAttemptAt)
	assert.Equal(t, "throttled", e.LastError)

	e.RecordFailure(errors.New("throttled"), now, p)
	assert.Equal(t, now.Add(2*time.Second), e.NextAttemptAt)
	e.RecordFailure(errors.New("throttled"), now, p)
	assert.Equal(t, OutboxFailed, e.Status)

	e.Requeue(now)
	assert.Equal(t, OutboxPending, e.Status)
	assert.Zero(t, e.Attempts)

	e.MarkPublished()
	assert.Equal(t, OutboxPublished, e.Status)
}

func TestNewDerivedEnvelope_IsDeterministic(t *testing.T) {
	parent, err := NewEnvelope(DeleteCommentsForTrip{TripID: "t"}, now)
	require.NoError(t, err)

	a, err := NewDerivedEnvelope(parent, DeleteImages{Keys: []string{"x"}}, now)
	require.NoError(t, err)
	b, err := NewDerivedEnvelope(parent, DeleteImages{Keys: []string{"x"}}, now.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, parent.ID, a.ID)
}
