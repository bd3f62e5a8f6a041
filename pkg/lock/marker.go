package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Marker is a Locker backed by an exclusively-created file.
type Marker struct {
	path  string
	poll  time.Duration
	now   func() time.Time
	log   *slog.Logger
	watch bool
}

// MarkerOption configures a Marker.
type MarkerOption func(*Marker)

// WithPollInterval sets how often a contended marker is re-checked.
func WithPollInterval(d time.Duration) MarkerOption {
	return func(m *Marker) {
		if d > 0 {
			m.poll = d
		}
	}
}

// WithClock replaces time.Now for stamping and age checks.
func WithClock(now func() time.Time) MarkerOption {
	return func(m *Marker) { m.now = now }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) MarkerOption {
	return func(m *Marker) { m.log = l }
}

// WithoutWatch disables fsnotify wake-ups, leaving plain polling.
func WithoutWatch() MarkerOption {
	return func(m *Marker) { m.watch = false }
}

// NewMarker returns a Marker at path.
func NewMarker(path string, opts ...MarkerOption) *Marker {
	m := &Marker{
		path:  path,
		poll:  DefaultPollInterval,
		now:   time.Now,
		log:   slog.Default(),
		watch: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the marker file path.
func (m *Marker) Path() string {
	return m.path
}

// Acquire implements Locker.
func (m *Marker) Acquire(ctx context.Context, wait, stale time.Duration) error {
	start := m.now()

	var w *fsnotify.Watcher
	defer func() {
		if w != nil {
			_ = w.Close()
		}
	}()

	for {
		err := m.create()
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}

		stamp, err := readStamp(m.path)
		age := m.now().Sub(stamp)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Released between our create and read.
			continue
		case err != nil:
			m.log.Debug("lock: unreadable marker", "path", m.path, "error", err)
		case isStale(age, stale):
			switch rmErr := m.breakStale(stamp, stale); {
			case rmErr == nil:
				m.log.Info("lock: broke stale marker", "path", m.path, "age", age)
				continue
			case errors.Is(rmErr, errBreakBusy):
				m.log.Debug("lock: stale marker already being broken", "path", m.path)
			default:
				m.log.Warn("lock: cannot break stale marker", "path", m.path, "age", age, "error", rmErr)
			}
		}

		if m.now().Sub(start) > wait {
			return fmt.Errorf("%w after %s (%s)", ErrTimeout, wait, m.path)
		}

		if w == nil && m.watch {
			w = m.newWatcher()
		}
		if err := m.sleep(ctx, w); err != nil {
			return err
		}
	}
}

// Release implements Locker.
func (m *Marker) Release() error {
	if err := removeIfExists(m.path); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// create makes the marker exclusively and stamps it with the current time.
func (m *Marker) create() error {
	f, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // lock path is controlled by configuration
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		return fmt.Errorf("create lock %s: %w", m.path, err)
	}

	_, werr := f.WriteString(strconv.FormatInt(m.now().UnixMilli(), 10))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(m.path)
		return fmt.Errorf("stamp lock %s: %w", m.path, err)
	}
	return nil
}

// errBreakBusy means another contender is breaking the same marker.
var errBreakBusy = errors.New("stale marker is being broken by another process")

// breakStale removes the marker only if it still carries the stale stamp.
// Breakers serialize on a sibling guard file, so a re-read and remove can
// never interleave with another breaker's remove and create.
func (m *Marker) breakStale(stamp time.Time, stale time.Duration) error {
	guard := m.guardPath()
	g, err := os.OpenFile(guard, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // lock path is controlled by configuration
	if errors.Is(err, fs.ErrExist) {
		m.clearAbandonedGuard(guard, stale)
		return errBreakBusy
	}
	if err != nil {
		return fmt.Errorf("guard stale break: %w", err)
	}
	_ = g.Close()
	defer func() { _ = removeIfExists(guard) }()

	current, err := readStamp(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !current.Equal(stamp) {
		return nil
	}
	return removeIfExists(m.path)
}

func (m *Marker) guardPath() string {
	return m.path + ".break"
}

// clearAbandonedGuard removes a guard left by a breaker that died holding it.
func (m *Marker) clearAbandonedGuard(guard string, stale time.Duration) {
	info, err := os.Stat(guard)
	if err != nil || time.Since(info.ModTime()) <= stale {
		return
	}
	if err := removeIfExists(guard); err == nil {
		m.log.Info("lock: removed abandoned break guard", "path", guard)
	}
}

// sleep waits one poll interval, returning early when the marker is removed.
func (m *Marker) sleep(ctx context.Context, w *fsnotify.Watcher) error {
	timer := time.NewTimer(m.poll)
	defer timer.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w != nil {
		events, errs = w.Events, w.Errors
	}

	name := filepath.Base(m.path)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("lock wait: %w", ctx.Err())
		case <-timer.C:
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(ev.Name) == name && ev.Has(fsnotify.Remove|fsnotify.Rename) {
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.log.Debug("fsnotify: watcher error", "error", err)
		}
	}
}

// newWatcher watches the marker's directory. It returns nil on failure and
// the caller falls back to polling.
func (m *Marker) newWatcher() *fsnotify.Watcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		m.log.Debug("fsnotify: failed to create watcher (falling back to polling)", "error", err)
		return nil
	}
	dir := filepath.Dir(m.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		m.log.Debug("fsnotify: failed to watch (falling back to polling)", "dir", dir, "error", err)
		return nil
	}
	return w
}

// isStale treats markers stamped too far in the past, or too far in the
// future after a clock jump, as abandoned.
func isStale(age, stale time.Duration) bool {
	return age > stale || age < -stale
}

// readStamp parses the marker's timestamp, falling back to its mtime when the
// content is empty or garbled (e.g. a holder that died mid-write).
func readStamp(path string) (time.Time, error) {
	data, err := os.ReadFile(path) //nolint:gosec // lock path is controlled by configuration
	if err != nil {
		return time.Time{}, err
	}
	if ms, perr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); perr == nil {
		return time.UnixMilli(ms), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
