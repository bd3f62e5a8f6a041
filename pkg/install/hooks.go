package install

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eva/pkg/protocol"
)

// hooksVersion is the schema version written to a fresh hooks.json.
const hooksVersion = 1

// hookEntry is the part of a hooks.json entry EVA looks at. Other fields of
// foreign entries are carried through untouched as raw JSON.
type hookEntry struct {
	Command string `json:"command"`
}

// ownedBy reports whether raw is an entry installed by EVA: either the exact
// command this install writes, or one pointing into a default ra2-eva home.
func ownedBy(raw json.RawMessage, command string) bool {
	var e hookEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false
	}
	if command != "" && strings.TrimSpace(e.Command) == command {
		return true
	}
	return strings.Contains(e.Command, protocol.InstallName)
}

// hooksFile is hooks.json split into the hooks table and everything else.
type hooksFile struct {
	top   map[string]json.RawMessage
	hooks map[string][]json.RawMessage
}

func parseHooks(data []byte) (*hooksFile, error) {
	f := &hooksFile{
		top:   make(map[string]json.RawMessage),
		hooks: make(map[string][]json.RawMessage),
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.top); err != nil {
		return nil, fmt.Errorf("parse hooks.json: %w", err)
	}
	if f.top == nil {
		// A literal null.
		f.top = make(map[string]json.RawMessage)
	}
	if raw, ok := f.top["hooks"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &f.hooks); err != nil {
			return nil, fmt.Errorf("parse hooks.json hooks table: %w", err)
		}
		if f.hooks == nil {
			f.hooks = make(map[string][]json.RawMessage)
		}
	}
	return f, nil
}

func (f *hooksFile) encode() ([]byte, error) {
	if _, ok := f.top["version"]; !ok {
		f.top["version"] = json.RawMessage(fmt.Sprint(hooksVersion))
	}
	hooks, err := json.Marshal(f.hooks)
	if err != nil {
		return nil, fmt.Errorf("encode hooks table: %w", err)
	}
	f.top["hooks"] = hooks

	out, err := json.MarshalIndent(f.top, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode hooks.json: %w", err)
	}
	return append(out, '\n'), nil
}

// MergeHooks registers command for every event kind in data, an existing
// hooks.json document (empty means none). Entries of other tools and unknown
// keys are preserved; previous EVA entries, including ones equal to command,
// are replaced. It returns the new
// document and how many EVA entries it replaced.
func MergeHooks(data []byte, command string) ([]byte, int, error) {
	if command == "" {
		return nil, 0, errors.New("empty hook command")
	}
	f, err := parseHooks(data)
	if err != nil {
		return nil, 0, err
	}

	entry, err := json.Marshal(hookEntry{Command: command})
	if err != nil {
		return nil, 0, fmt.Errorf("encode hook entry: %w", err)
	}

	replaced := 0
	for _, kind := range protocol.AllEventKinds {
		key := string(kind)
		kept := f.hooks[key][:0:0]
		for _, raw := range f.hooks[key] {
			if ownedBy(raw, command) {
				replaced++
				continue
			}
			kept = append(kept, raw)
		}
		f.hooks[key] = append(kept, entry)
	}

	out, err := f.encode()
	if err != nil {
		return nil, 0, err
	}
	return out, replaced, nil
}

// RemoveHooks drops every EVA entry from data, including entries equal to
// command, and deletes event lists left empty. It returns the new document and
// how many entries were removed.
func RemoveHooks(data []byte, command string) ([]byte, int, error) {
	f, err := parseHooks(data)
	if err != nil {
		return nil, 0, err
	}

	removed := 0
	for key, entries := range f.hooks {
		kept := entries[:0:0]
		for _, raw := range entries {
			if ownedBy(raw, command) {
				removed++
				continue
			}
			kept = append(kept, raw)
		}
		if len(kept) == 0 {
			delete(f.hooks, key)
			continue
		}
		f.hooks[key] = kept
	}

	out, err := f.encode()
	if err != nil {
		return nil, 0, err
	}
	return out, removed, nil
}

// Registered lists the event kinds that have an EVA entry in data. command is
// the hook command of the current install, as for RemoveHooks.
func Registered(data []byte, command string) ([]protocol.EventKind, error) {
	f, err := parseHooks(data)
	if err != nil {
		return nil, err
	}
	var kinds []protocol.EventKind
	for _, kind := range protocol.AllEventKinds {
		for _, raw := range f.hooks[string(kind)] {
			if ownedBy(raw, command) {
				kinds = append(kinds, kind)
				break
			}
		}
	}
	return kinds, nil
}
