// Package catalog maps sound keys to candidate EVA voice lines per faction.
//
// The table is static: Default parses the embedded catalog.yaml once and the
// resulting Catalog is never mutated. Merge builds a new Catalog for user
// overrides instead of editing in place.
package catalog

import (
	_ "embed"
	"fmt"
	"maps"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"sync"

	"eva/pkg/faction"
	"eva/pkg/soundkey"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultTable []byte

// Entry holds the candidate audio identifiers of one key for each faction.
// A nil list in an override means "keep the default"; an empty list silences
// that faction.
type Entry struct {
	Allied []string `yaml:"allied" toml:"allied"`
	Soviet []string `yaml:"soviet" toml:"soviet"`
}

// For returns the candidate list of f.
func (e Entry) For(f faction.Faction) []string {
	switch f {
	case faction.Allied:
		return e.Allied
	case faction.Soviet:
		return e.Soviet
	default:
		return nil
	}
}

// Picker returns an index in [0, n). It must be uniform.
type Picker func(n int) int

// Catalog is a read-only sound table.
type Catalog struct {
	entries map[soundkey.Key]Entry
	pick    Picker
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPicker replaces the default uniform random picker.
func WithPicker(p Picker) Option {
	return func(c *Catalog) { c.pick = p }
}

// New returns a Catalog over a copy of entries.
func New(entries map[soundkey.Key]Entry, opts ...Option) *Catalog {
	c := &Catalog{
		entries: maps.Clone(entries),
		pick:    rand.IntN,
	}
	if c.entries == nil {
		c.entries = make(map[soundkey.Key]Entry)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse decodes a YAML table of key -> {allied, soviet}.
func Parse(data []byte) (map[soundkey.Key]Entry, error) {
	var table map[soundkey.Key]Entry
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse sound table: %w", err)
	}
	return table, nil
}

var loadDefault = sync.OnceValues(func() (map[soundkey.Key]Entry, error) { //nolint:gochecknoglobals // parsed once per process
	return Parse(defaultTable)
})

// Default returns a Catalog over the embedded table.
func Default(opts ...Option) (*Catalog, error) {
	table, err := loadDefault()
	if err != nil {
		return nil, err
	}
	return New(table, opts...), nil
}

// Lookup returns one candidate identifier for key and f, chosen uniformly at
// random. It reports false when key is None, unknown, or has no candidates for f.
func (c *Catalog) Lookup(key soundkey.Key, f faction.Faction) (string, bool) {
	if key == soundkey.None {
		return "", false
	}
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	candidates := entry.For(f)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[c.pick(len(candidates))], true
}

// Entry returns the raw entry for key.
func (c *Catalog) Entry(key soundkey.Key) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Keys returns every key in the table, sorted.
func (c *Catalog) Keys() []soundkey.Key {
	return slices.Sorted(maps.Keys(c.entries))
}

// Merge returns a new Catalog where each override replaces the per-faction
// lists it sets. The picker is carried over.
func (c *Catalog) Merge(overrides map[soundkey.Key]Entry) *Catalog {
	merged := maps.Clone(c.entries)
	for key, o := range overrides {
		e := merged[key]
		if o.Allied != nil {
			e.Allied = slices.Clone(o.Allied)
		}
		if o.Soviet != nil {
			e.Soviet = slices.Clone(o.Soviet)
		}
		merged[key] = e
	}
	return &Catalog{entries: merged, pick: c.pick}
}

// Path resolves an identifier to root/<faction dir>/id.
func Path(root string, f faction.Faction, id string) string {
	return filepath.Join(root, f.Dir(), id)
}
