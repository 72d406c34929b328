package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

// Envelope carries one event across process boundaries. The ID is stable
// across retries and is the deduplication key for consumers.
type Envelope struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope validates e and wraps it with a fresh ID.
func NewEnvelope(e Event, now time.Time) (Envelope, error) {
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s: %w", e.Kind(), err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Kind:       e.Kind(),
		OccurredAt: now.UTC(),
		Payload:    payload,
	}, nil
}

// NewDerivedEnvelope wraps e with an ID derived from parent, so a consumer
// that is retried re-emits the same follow-up event instead of a new one.
func NewDerivedEnvelope(parent Envelope, e Event, now time.Time) (Envelope, error) {
	env, err := NewEnvelope(e, now)
	if err != nil {
		return Envelope{}, err
	}
	env.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(parent.ID+"/"+string(e.Kind()))).String()
	return env, nil
}

// NewEnvelopes wraps several events, stopping at the first invalid one.
func NewEnvelopes(now time.Time, evts ...Event) ([]Envelope, error) {
	out := make([]Envelope, 0, len(evts))
	for _, e := range evts {
		env, err := NewEnvelope(e, now)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// Decode returns the typed event held by the envelope. Unknown kinds and
// malformed payloads are validation errors.
func (env Envelope) Decode() (Event, error) {
	var evt Event
	switch env.Kind {
	case KindDeleteImages:
		var e DeleteImages
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, malformed(env, err)
		}
		evt = e
	case KindDeleteCommentsForTrip:
		var e DeleteCommentsForTrip
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, malformed(env, err)
		}
		evt = e
	case KindBatchDeletePostsForGroup:
		var e BatchDeletePostsForGroup
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, malformed(env, err)
		}
		evt = e
	case KindUpdateUserGroups:
		var e UpdateUserGroups
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, malformed(env, err)
		}
		evt = e
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown event kind %q", env.Kind))
	}

	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return evt, nil
}

func malformed(env Envelope, err error) error {
	return pkgerrors.NewValidationError(fmt.Sprintf("malformed %s payload", env.Kind)).WithCause(err)
}
