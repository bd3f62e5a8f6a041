// Package faction selects which of the two EVA voice sets is active.
//
// The choice is a pure function of the local hour: odd hours speak with the
// Allied voice, even hours with the Soviet voice. Nothing is cached, so a
// caller that spans an hour boundary simply gets a different answer on the
// next call.
package faction

import (
	"fmt"
	"strings"
	"time"
)

// Faction is one of the two parallel voice sets.
type Faction string

const (
	// Allied is the primary voice set, active on odd hours.
	Allied Faction = "allied"
	// Soviet is the secondary voice set, active on even hours.
	Soviet Faction = "soviet"
)

// All lists every faction in display order.
var All = []Faction{Allied, Soviet} //nolint:gochecknoglobals // read-only enumeration

// ForHour returns Allied for odd hours and Soviet for even hours.
// Hours outside 0-23 are normalised modulo 24.
func ForHour(hour int) Faction {
	h := ((hour % 24) + 24) % 24
	if h%2 == 1 {
		return Allied
	}
	return Soviet
}

// Current returns the faction for the local hour of now.
func Current(now time.Time) Faction {
	return ForHour(now.Hour())
}

// Dir returns the asset subdirectory holding this faction's voice lines.
func (f Faction) Dir() string {
	return "eva_" + string(f)
}

// String implements fmt.Stringer.
func (f Faction) String() string {
	return string(f)
}

// Parse converts a user-supplied name into a Faction.
func Parse(s string) (Faction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allied", "allies", "primary":
		return Allied, nil
	case "soviet", "soviets", "secondary":
		return Soviet, nil
	default:
		return "", fmt.Errorf("unknown faction %q (must be allied or soviet)", s)
	}
}
