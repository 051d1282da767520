package core

import "time"

// Deadline is a non-blocking, restartable countdown used to bound operations
// that could otherwise wait forever on an absent or misbehaving slave. The
// clock source is monotonic (Go time.Time carries a monotonic reading) and
// injectable for tests.
type Deadline struct {
	duration time.Duration
	start    time.Time
	now      func() time.Time
}

// NewDeadline returns a countdown of the given duration using the wall clock.
func NewDeadline(d time.Duration) Deadline {
	return newDeadline(d, time.Now)
}

func newDeadline(d time.Duration, now func() time.Time) Deadline {
	return Deadline{duration: d, start: now(), now: now}
}

// Expired reports whether the deadline has elapsed.
func (t *Deadline) Expired() bool {
	return t.now().Sub(t.start) >= t.duration
}

// Restart re-derives a fresh deadline of the same duration from now.
func (t *Deadline) Restart() {
	t.start = t.now()
}

// spinDelay busy-waits for d. Half-bit delays are a few microseconds, far
// below scheduler granularity, and some targets have no scheduler at all,
// so a spin against the monotonic clock is the correct primitive.
func spinDelay(d time.Duration, now func() time.Time) {
	start := now()
	for now().Sub(start) < d {
	}
}
