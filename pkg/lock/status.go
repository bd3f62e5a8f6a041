package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// State describes a marker as seen from outside.
type State string

// Marker states reported by Inspect.
const (
	StateFree  State = "free"
	StateHeld  State = "held"
	StateStale State = "stale"
)

// Status is a point-in-time view of a marker file.
type Status struct {
	State State
	Since time.Time     // zero when free
	Age   time.Duration // zero when free
}

// Inspect reports whether the marker at path is free, held, or stale at now.
func Inspect(path string, now time.Time, stale time.Duration) (Status, error) {
	stamp, err := readStamp(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Status{State: StateFree}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("inspect lock %s: %w", path, err)
	}

	age := now.Sub(stamp)
	st := Status{State: StateHeld, Since: stamp, Age: age}
	if isStale(age, stale) {
		st.State = StateStale
	}
	return st, nil
}
