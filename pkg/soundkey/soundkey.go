// Package soundkey maps a hook event to the abstract key of the sound it
// should play.
//
// Resolution is an ordered decision table: the first rule whose predicate
// matches decides the key, and events no rule claims fall back to their own
// kind. Resolve reads nothing but its argument, so two calls with the same
// Event always agree.
package soundkey

import (
	"slices"

	"eva/pkg/protocol"
)

// Key identifies a catalog entry independently of faction.
type Key string

// None means "play nothing".
const None Key = ""

// keyStopPrefix prefixes the status-qualified keys of the stop event.
const keyStopPrefix = "stop:"

// Event is the part of a hook payload that participates in resolution.
type Event struct {
	Kind     protocol.EventKind
	ToolName string
	Status   string
}

// Rule is one row of the decision table.
type Rule struct {
	// Name describes the rule in diagnostics.
	Name string
	// Match reports whether the rule applies to ev.
	Match func(ev Event) bool
	// Key builds the result for a matching event. None suppresses the sound.
	Key func(ev Event) Key
}

// StopKey returns the composite key for a stop event with the given status.
func StopKey(status string) Key {
	return Key(keyStopPrefix + status)
}

// KindKey returns the key equal to the event kind.
func KindKey(kind protocol.EventKind) Key {
	return Key(kind)
}

func kindIs(kind protocol.EventKind) func(Event) bool {
	return func(ev Event) bool { return ev.Kind == kind }
}

func toolOn(kind protocol.EventKind, tools ...string) func(Event) bool {
	return func(ev Event) bool {
		return ev.Kind == kind && slices.Contains(tools, ev.ToolName)
	}
}

func suppress(Event) Key { return None }

func always(k Key) func(Event) Key {
	return func(Event) Key { return k }
}

// rules is evaluated top to bottom; the kind fallback is applied by Resolve.
var rules = []Rule{ //nolint:gochecknoglobals // static decision table
	{
		Name:  "stop plays its status variant",
		Match: kindIs(protocol.Stop),
		Key:   func(ev Event) Key { return StopKey(ev.Status) },
	},
	{
		Name:  "preToolUse: Shell/Read have dedicated before-hooks",
		Match: toolOn(protocol.PreToolUse, protocol.ToolShell, protocol.ToolRead),
		Key:   suppress,
	},
	{
		Name:  "preToolUse: Grep plays the read cue",
		Match: toolOn(protocol.PreToolUse, protocol.ToolGrep),
		Key:   always(KindKey(protocol.BeforeReadFile)),
	},
	{
		Name:  "preToolUse: Write/StrReplace are announced by afterFileEdit",
		Match: toolOn(protocol.PreToolUse, protocol.ToolWrite, protocol.ToolStrReplace),
		Key:   suppress,
	},
	{
		Name: "postToolUse: Shell/Read/Grep/Write/StrReplace are covered elsewhere",
		Match: toolOn(protocol.PostToolUse,
			protocol.ToolShell, protocol.ToolRead, protocol.ToolGrep,
			protocol.ToolWrite, protocol.ToolStrReplace),
		Key: suppress,
	},
	{
		Name:  "postToolUse: Delete plays the unit-lost cue",
		Match: toolOn(protocol.PostToolUse, protocol.ToolDelete),
		Key:   always(KindKey(protocol.PostToolUseFailure)),
	},
	{
		Name:  "postToolUseFailure: Read misses are expected",
		Match: toolOn(protocol.PostToolUseFailure, protocol.ToolRead),
		Key:   suppress,
	},
}

// Rules returns a copy of the decision table in evaluation order.
func Rules() []Rule {
	return slices.Clone(rules)
}

// Resolve returns the sound key for ev, or None when the event is suppressed.
func Resolve(ev Event) Key {
	if _, k, ok := match(ev); ok {
		return k
	}
	return KindKey(ev.Kind)
}

// Explain returns the name of the rule that decides ev, or "kind fallback".
func Explain(ev Event) string {
	if r, _, ok := match(ev); ok {
		return r.Name
	}
	return "kind fallback"
}

func match(ev Event) (Rule, Key, bool) {
	for _, r := range rules {
		if r.Match(ev) {
			return r, r.Key(ev), true
		}
	}
	return Rule{}, None, false
}
