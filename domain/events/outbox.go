package events

import (
	"time"
)

// OutboxStatus is the delivery state of an outbox entry.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// OutboxEntry is an event persisted together with the change that caused it,
// kept until the event bus acknowledges it.
type OutboxEntry struct {
	Envelope      Envelope
	Status        OutboxStatus
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
}

// RetryPolicy controls outbox redelivery.
type RetryPolicy struct {
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy is 5s doubling up to 15 minutes, five attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseBackoff: 5 * time.Second,
		MaxBackoff:  15 * time.Minute,
		MaxAttempts: 5,
	}
}

// Backoff returns the delay after the given number of failed attempts.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := p.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// NewOutboxEntry creates a pending entry. The sweeper leaves it alone for
// grace so the inline dispatch can publish it first.
func NewOutboxEntry(env Envelope, now time.Time, grace time.Duration) OutboxEntry {
	return OutboxEntry{
		Envelope:      env,
		Status:        OutboxPending,
		CreatedAt:     now.UTC(),
		NextAttemptAt: now.UTC().Add(grace),
	}
}

// RecordFailure counts a failed publish and schedules the next attempt, or
// parks the entry as failed once the budget is spent.
func (e *OutboxEntry) RecordFailure(cause error, now time.Time, p RetryPolicy) {
	e.Attempts++
	if cause != nil {
		e.LastError = cause.Error()
	}
	if p.MaxAttempts > 0 && e.Attempts >= p.MaxAttempts {
		e.Status = OutboxFailed
		return
	}
	e.Status = OutboxPending
	e.NextAttemptAt = now.UTC().Add(p.Backoff(e.Attempts))
}

// MarkPublished records a successful publish.
func (e *OutboxEntry) MarkPublished() {
	e.Status = OutboxPublished
	e.LastError = ""
}

// Requeue moves a failed entry back to pending with a fresh budget.
func (e *OutboxEntry) Requeue(now time.Time) {
	e.Status = OutboxPending
	e.Attempts = 0
	e.NextAttemptAt = now.UTC()
}
