package hook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"eva/pkg/catalog"
	"eva/pkg/faction"
	"eva/pkg/playback"
	"eva/pkg/soundkey"
)

// Player plays a resolved sound file. *playback.Coordinator satisfies it.
type Player interface {
	Play(ctx context.Context, path string) playback.Outcome
}

// Selection is the outcome of resolving an event to a file.
type Selection struct {
	Key     soundkey.Key
	Faction faction.Faction
	ID      string // empty when nothing is selected
	Path    string // empty when nothing is selected
}

// Selected reports whether a sound file was chosen.
func (s Selection) Selected() bool {
	return s.Path != ""
}

// Handler processes hook payloads.
type Handler struct {
	catalog    *catalog.Catalog
	player     Player
	assetsRoot string
	now        func() time.Time
	log        *slog.Logger
	muted      bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock replaces time.Now for faction selection.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithMuted resolves sounds but never plays them.
func WithMuted(muted bool) Option {
	return func(h *Handler) { h.muted = muted }
}

// NewHandler returns a Handler resolving sounds from cat under assetsRoot
// and playing them through player.
func NewHandler(cat *catalog.Catalog, player Player, assetsRoot string, opts ...Option) *Handler {
	h := &Handler{
		catalog:    cat,
		player:     player,
		assetsRoot: assetsRoot,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one payload and returns the newline-terminated response.
// It never fails: every error path returns {}.
func (h *Handler) Handle(ctx context.Context, input []byte) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("hook failed", "panic", r)
			out = emptyJSON
		}
	}()

	ev, err := ParseEvent(input)
	if err != nil {
		h.log.Warn("hook failed", "error", err)
		return emptyJSON
	}

	h.log.Info("hook", "event", ev.HookEventName, "tool", ev.ToolName, "conversation", ev.ConversationID)
	h.play(ctx, ev)

	resp, err := json.Marshal(Decision(ev.HookEventName))
	if err != nil {
		h.log.Error("encode decision", "error", err)
		return emptyJSON
	}
	return append(resp, '\n')
}

// Select resolves ev to a sound file for the faction active at now.
func (h *Handler) Select(ev Event, now time.Time) Selection {
	sel := Selection{
		Key:     soundkey.Resolve(ev.SoundEvent()),
		Faction: faction.Current(now),
	}
	if h.catalog == nil {
		return sel
	}
	id, ok := h.catalog.Lookup(sel.Key, sel.Faction)
	if !ok {
		return sel
	}
	sel.ID = id
	sel.Path = catalog.Path(h.assetsRoot, sel.Faction, id)
	return sel
}

func (h *Handler) play(ctx context.Context, ev Event) {
	now := h.now()
	sel := h.Select(ev, now)
	h.log.Info("sound", "faction", sel.Faction, "hour", now.Hour(), "key", sel.Key, "file", sel.ID)

	if !sel.Selected() {
		h.log.Debug("no sound mapping", "event", ev.HookEventName, "key", sel.Key)
		return
	}
	if h.muted || h.player == nil {
		h.log.Debug("sound muted", "path", sel.Path)
		return
	}

	outcome := h.player.Play(ctx, sel.Path)
	h.log.Debug("playback finished", "outcome", outcome)
}
