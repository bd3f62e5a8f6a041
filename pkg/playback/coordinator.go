package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"eva/pkg/lock"
)

// Policy decides how long the playback lock is held.
type Policy string

const (
	// PolicySync holds the lock for the whole playback. Voice lines never
	// overlap, but the hook's latency includes the clip's duration.
	PolicySync Policy = "sync"
	// PolicyDetached releases the lock as soon as the player is spawned. The
	// hook returns quickly, but two clips started close together can overlap.
	PolicyDetached Policy = "detached"
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicySync, "":
		return PolicySync, nil
	case PolicyDetached:
		return PolicyDetached, nil
	default:
		return "", fmt.Errorf("invalid playback policy %q (must be sync or detached)", s)
	}
}

// Outcome reports what Play did. None of the outcomes is an error for the
// caller; they exist for diagnostics and tests.
type Outcome string

// Play outcomes.
const (
	OutcomePlayed  Outcome = "played"
	OutcomeMissing Outcome = "missing"
	OutcomeBusy    Outcome = "busy"
	OutcomeFailed  Outcome = "failed"
)

// DefaultPlaybackTimeout bounds a synchronous playback. It stays below
// lock.DefaultStaleAfter so a contender never breaks a marker that is still
// in use.
const DefaultPlaybackTimeout = 4 * time.Second

// Coordinator plays one file at a time across processes.
type Coordinator struct {
	locker  lock.Locker
	device  Device
	policy  Policy
	wait    time.Duration
	stale   time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPolicy sets the lock policy. The default is PolicySync.
func WithPolicy(p Policy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithTimeouts sets the lock wait ceiling and staleness threshold.
func WithTimeouts(wait, stale time.Duration) Option {
	return func(c *Coordinator) {
		if wait > 0 {
			c.wait = wait
		}
		if stale > 0 {
			c.stale = stale
		}
	}
}

// WithPlaybackTimeout bounds how long a synchronous Play may take.
func WithPlaybackTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator returns a Coordinator playing through device under locker.
func NewCoordinator(locker lock.Locker, device Device, opts ...Option) *Coordinator {
	c := &Coordinator{
		locker:  locker,
		device:  device,
		policy:  PolicySync,
		wait:    lock.DefaultWaitTimeout,
		stale:   lock.DefaultStaleAfter,
		timeout: DefaultPlaybackTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the active lock policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// Play plays the file at path, waiting for any other EVA playback to finish
// first. Every failure is logged and reported only through the Outcome.
func (c *Coordinator) Play(ctx context.Context, path string) (outcome Outcome) {
	if _, err := os.Stat(path); err != nil {
		c.log.Warn("sound file not found", "path", path, "error", err)
		return OutcomeMissing
	}

	if err := c.locker.Acquire(ctx, c.wait, c.stale); err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			c.log.Warn("could not acquire audio lock, skipping", "path", path, "error", err)
		} else {
			c.log.Error("audio lock failed, skipping", "path", path, "error", err)
		}
		return OutcomeBusy
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := c.locker.Release(); err != nil {
			c.log.Error("release audio lock", "error", err)
		}
	}
	defer release()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("audio device panicked", "path", path, "panic", r)
			outcome = OutcomeFailed
		}
	}()

	c.log.Info("playing", "path", path, "policy", c.policy)

	var err error
	switch c.policy {
	case PolicyDetached:
		err = c.device.Start(path)
		release()
	default:
		err = c.playBounded(ctx, path)
	}
	if err != nil {
		c.log.Error("error playing sound", "path", path, "error", err)
		return OutcomeFailed
	}
	return OutcomePlayed
}

// playBounded runs device.Play under the playback timeout. A device that
// ignores its context is abandoned once the deadline passes.
func (c *Coordinator) playBounded(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("audio device panicked: %v", r)
			}
		}()
		done <- c.device.Play(ctx, path)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("playback of %s abandoned after %s: %w", path, c.timeout, ctx.Err())
	}
}
