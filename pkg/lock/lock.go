// Package lock serializes audio playback across independent hook processes.
//
// Hook invocations are separate short-lived processes, so there is no shared
// memory to coordinate through. Locker abstracts the cross-process mutex; the
// Marker implementation backs it with a single well-known file holding the
// acquisition time in Unix milliseconds.
//
// Acquisition is cooperative: contenders poll the marker on a short interval,
// break markers older than the staleness threshold (their holder is presumed
// crashed or hung), and give up once the wait ceiling passes. Giving up is a
// normal outcome; callers skip the sound rather than block the host.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Acquire when the wait ceiling passes while another
// holder keeps a fresh marker.
var ErrTimeout = errors.New("lock wait timed out")

// Locker is a timeout-bounded, staleness-recovering mutual exclusion.
type Locker interface {
	// Acquire blocks until the lock is held, wait has elapsed, or ctx is done.
	// A held lock older than stale is broken and taken over.
	Acquire(ctx context.Context, wait, stale time.Duration) error
	// Release drops the lock. Releasing a lock that is not held is not an error.
	Release() error
}

// Default timings. PollInterval must stay well below StaleAfter, and
// StaleAfter below WaitTimeout.
const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultStaleAfter   = 5 * time.Second
	DefaultWaitTimeout  = 10 * time.Second
)

// Nop is a Locker that always succeeds immediately.
type Nop struct{}

// Acquire implements Locker.
func (Nop) Acquire(context.Context, time.Duration, time.Duration) error { return nil }

// Release implements Locker.
func (Nop) Release() error { return nil }
