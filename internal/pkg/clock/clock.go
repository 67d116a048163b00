// Package clock provides an injectable time source so that time-dependent
// logic (scheduling windows, decay, edit locks) is deterministic under test.
package clock

import "time"

// Clock is the time source used by all time-dependent components.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by the system clock.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock pinned to a settable instant, for tests.
type Fixed struct {
	T time.Time
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the pinned instant forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
