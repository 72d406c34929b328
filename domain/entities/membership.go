package entities

import (
	"fmt"
	"strings"
)

// MembershipIntent says how a membership list should change.
type MembershipIntent string

const (
	IntentJoin   MembershipIntent = "join"
	IntentLeave  MembershipIntent = "leave"
	IntentToggle MembershipIntent = "toggle"
)

// ParseIntent parses s, defaulting to toggle when s is empty.
func ParseIntent(s string) (MembershipIntent, error) {
	switch MembershipIntent(strings.ToLower(strings.TrimSpace(s))) {
	case "", IntentToggle:
		return IntentToggle, nil
	case IntentJoin:
		return IntentJoin, nil
	case IntentLeave:
		return IntentLeave, nil
	default:
		return "", fmt.Errorf("unknown membership intent %q", s)
	}
}

// Valid reports whether i is one of the known intents.
func (i MembershipIntent) Valid() bool {
	return i == IntentJoin || i == IntentLeave || i == IntentToggle
}

// Resolve turns toggle into join or leave given the current membership.
func (i MembershipIntent) Resolve(present bool) MembershipIntent {
	if i != IntentToggle {
		return i
	}
	if present {
		return IntentLeave
	}
	return IntentJoin
}

// ApplyMembership applies intent for item to list. Items compare
// case-insensitively. It returns the new list and whether anything changed;
// join and leave are idempotent.
func ApplyMembership(list []string, item string, intent MembershipIntent) ([]string, bool) {
	idx := -1
	for i, s := range list {
		if strings.EqualFold(s, item) {
			idx = i
			break
		}
	}

	switch intent.Resolve(idx >= 0) {
	case IntentJoin:
		if idx >= 0 {
			return list, false
		}
		out := make([]string, 0, len(list)+1)
		out = append(out, list...)
		return append(out, item), true
	case IntentLeave:
		if idx < 0 {
			return list, false
		}
		out := make([]string, 0, len(list)-1)
		out = append(out, list[:idx]...)
		return append(out, list[idx+1:]...), true
	}
	return list, false
}
