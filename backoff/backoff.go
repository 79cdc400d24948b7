// Package backoff implements the per-key exponential backoff tracker
// used to gate outbound advertisements and ttl refreshes, per spec.md
// §3 ("Backoff").
package backoff

import "time"

// Tracker is per-key exponential backoff state. It is not safe for
// concurrent use; callers own the same single-threaded discipline the
// rest of the agent does.
type Tracker struct {
	initial time.Duration
	max     time.Duration

	currentDelay time.Duration
	nextAttempt  time.Time
	armed        bool
}

// New creates a Tracker with the given initial delay and cap. initial
// must be positive and max must be >= initial.
func New(initial, max time.Duration) *Tracker {
	return &Tracker{
		initial:      initial,
		max:          max,
		currentDelay: initial,
	}
}

// CanTryNow reports whether an attempt may proceed now.
func (t *Tracker) CanTryNow(now time.Time) bool {
	if !t.armed {
		return true
	}
	return !now.Before(t.nextAttempt)
}

// ReportError doubles the current delay (capped at max) and arms
// nextAttempt = now + currentDelay. Despite the name, the advertise
// engine calls this on every attempt, successful or not - it is a
// rate-limiter, not a failure signal: each advertisement buys
// progressively more breathing room before the next is allowed.
func (t *Tracker) ReportError(now time.Time) {
	t.currentDelay *= 2
	if t.currentDelay > t.max {
		t.currentDelay = t.max
	}
	t.nextAttempt = now.Add(t.currentDelay)
	t.armed = true
}

// ReportSuccess resets the delay to initial and clears nextAttempt.
func (t *Tracker) ReportSuccess() {
	t.currentDelay = t.initial
	t.armed = false
	t.nextAttempt = time.Time{}
}

// TimeUntilRetry returns max(0, nextAttempt - now).
func (t *Tracker) TimeUntilRetry(now time.Time) time.Duration {
	if !t.armed {
		return 0
	}
	d := t.nextAttempt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// DeadlinePassed reports whether the tracker is armed with a deadline
// strictly in the past relative to now. Used by the advertise timer to
// lazily drain stale penalty via ReportSuccess.
func (t *Tracker) DeadlinePassed(now time.Time) bool {
	return t.armed && now.After(t.nextAttempt)
}
