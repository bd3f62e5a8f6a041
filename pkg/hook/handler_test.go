package hook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"eva/pkg/catalog"
	"eva/pkg/faction"
	"eva/pkg/lock"
	"eva/pkg/playback"
	"eva/pkg/protocol"
	"eva/pkg/soundkey"
)

// recordingPlayer remembers every path it was asked to play.
type recordingPlayer struct {
	mu    sync.Mutex
	paths []string
	panic bool
}

func (p *recordingPlayer) Play(_ context.Context, path string) playback.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panic {
		panic("device exploded")
	}
	p.paths = append(p.paths, path)
	return playback.OutcomePlayed
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func atHour(h int) func() time.Time {
	return func() time.Time { return time.Date(2026, 10, 14, h, 15, 0, 0, time.Local) }
}

func newTestHandler(t *testing.T, p Player, hour int) *Handler {
	t.Helper()
	cat, err := catalog.Default(catalog.WithPicker(func(int) int { return 0 }))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewHandler(cat, p, "/assets", WithClock(atHour(hour)), WithLogger(quietLogger()))
}

func payload(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	common := map[string]any{
		"conversation_id": "c-1",
		"generation_id":   "g-1",
		"model":           "gpt-5",
		"cursor_version":  "1.7.2",
		"workspace_roots": []string{"/work"},
		"user_email":      nil,
		"transcript_path": nil,
	}
	for k, v := range fields {
		common[k] = v
	}
	data, err := json.Marshal(common)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandle_SessionStartAtEvenHour(t *testing.T) {
	p := &recordingPlayer{}
	h := newTestHandler(t, p, 10)

	out := h.Handle(context.Background(), payload(t, map[string]any{
		"hook_event_name":     "sessionStart",
		"session_id":          "s-1",
		"is_background_agent": false,
		"composer_mode":       "agent",
	}))

	if string(out) != "{\"continue\":true}\n" {
		t.Errorf("unexpected decision %q", out)
	}
	want := filepath.Join("/assets", "eva_soviet", "csof016.wav")
	if len(p.paths) != 1 || p.paths[0] != want {
		t.Errorf("expected Soviet sessionStart sound %s, got %v", want, p.paths)
	}
}

func TestHandle_PostToolUseDeletePlaysFailureKey(t *testing.T) {
	p := &recordingPlayer{}
	h := newTestHandler(t, p, 11)

	ev := map[string]any{
		"hook_event_name": "postToolUse",
		"tool_name":       "Delete",
		"tool_input":      map[string]any{"path": "/work/old.go"},
		"tool_output":     "ok",
		"status":          "completed",
		"duration":        12,
	}
	out := h.Handle(context.Background(), payload(t, ev))
	if string(out) != "{}\n" {
		t.Errorf("postToolUse is observational, got %q", out)
	}

	want := filepath.Join("/assets", "eva_allied", "ceva064.wav")
	if len(p.paths) != 1 || p.paths[0] != want {
		t.Errorf("expected unit-lost sound %s, got %v", want, p.paths)
	}

	parsed, err := ParseEvent(payload(t, ev))
	if err != nil {
		t.Fatal(err)
	}
	if sel := h.Select(parsed, atHour(11)()); sel.Key != soundkey.KindKey(protocol.PostToolUseFailure) {
		t.Errorf("expected failure key, got %q", sel.Key)
	}
}

func TestHandle_MalformedInput(t *testing.T) {
	inputs := []string{"", "not json", "{\"hook_event_name\":", "[1,2,3]", "\"sessionStart\""}
	for _, in := range inputs {
		p := &recordingPlayer{}
		h := newTestHandler(t, p, 10)
		out := h.Handle(context.Background(), []byte(in))
		if string(out) != "{}\n" {
			t.Errorf("input %q: expected {}, got %q", in, out)
		}
		if len(p.paths) != 0 {
			t.Errorf("input %q: malformed input must not play, got %v", in, p.paths)
		}
	}
}

func TestHandle_Decisions(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"sessionStart", `{"continue":true}`},
		{"beforeSubmitPrompt", `{"continue":true}`},
		{"preToolUse", `{"decision":"allow"}`},
		{"subagentStart", `{"decision":"allow"}`},
		{"beforeShellExecution", `{"permission":"allow"}`},
		{"beforeMCPExecution", `{"permission":"allow"}`},
		{"beforeReadFile", `{"permission":"allow"}`},
		{"sessionEnd", `{}`},
		{"postToolUse", `{}`},
		{"postToolUseFailure", `{}`},
		{"afterShellExecution", `{}`},
		{"afterMCPExecution", `{}`},
		{"afterFileEdit", `{}`},
		{"subagentStop", `{}`},
		{"stop", `{}`},
		{"preCompact", `{}`},
		{"afterAgentThought", `{}`},
		{"somethingNew", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			h := newTestHandler(t, &recordingPlayer{}, 3)
			out := h.Handle(context.Background(), payload(t, map[string]any{"hook_event_name": tt.kind}))
			if got := strings.TrimSuffix(string(out), "\n"); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if !strings.HasSuffix(string(out), "\n") {
				t.Error("response must be newline-terminated")
			}
		})
	}
}

func TestHandle_UnknownFieldsAccepted(t *testing.T) {
	p := &recordingPlayer{}
	h := newTestHandler(t, p, 10)
	out := h.Handle(context.Background(), payload(t, map[string]any{
		"hook_event_name": "preCompact",
		"trigger":         "auto",
		"future_field":    map[string]any{"nested": []int{1, 2}},
		"context_tokens":  120000,
	}))
	if string(out) != "{}\n" {
		t.Errorf("unexpected decision %q", out)
	}
	if len(p.paths) != 1 {
		t.Errorf("expected preCompact sound, got %v", p.paths)
	}
}

func TestHandle_MistypedLogFieldsAreIgnored(t *testing.T) {
	p := &recordingPlayer{}
	h := newTestHandler(t, p, 10)
	in := `{"hook_event_name":"preToolUse","tool_name":"Task","cursor_version":2,"workspace_roots":"/w","user_email":7,"conversation_id":["c"]}`

	out := h.Handle(context.Background(), []byte(in))
	if string(out) != "{\"decision\":\"allow\"}\n" {
		t.Errorf("expected allow decision, got %q", out)
	}
	if len(p.paths) != 1 {
		t.Errorf("expected preToolUse sound, got %v", p.paths)
	}

	ev, err := ParseEvent([]byte(in))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.ToolName != "Task" || ev.CursorVersion != "" || ev.WorkspaceRoots != nil || ev.UserEmail != nil {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestParseEvent_MistypedRoutingFieldFails(t *testing.T) {
	for _, in := range []string{
		`{"hook_event_name":3}`,
		`{"hook_event_name":"preToolUse","tool_name":{"name":"Task"}}`,
		`{"hook_event_name":"stop","status":false}`,
	} {
		if _, err := ParseEvent([]byte(in)); err == nil {
			t.Errorf("input %s: expected error", in)
		}
	}
}

func TestHandle_SuppressedEventsPlayNothing(t *testing.T) {
	events := []map[string]any{
		{"hook_event_name": "preToolUse", "tool_name": "Shell"},
		{"hook_event_name": "preToolUse", "tool_name": "Read"},
		{"hook_event_name": "postToolUse", "tool_name": "Write"},
		{"hook_event_name": "postToolUseFailure", "tool_name": "Read", "failure_type": "error"},
		{"hook_event_name": "stop", "status": "paused"},
		{"hook_event_name": "unknownKind"},
	}
	for _, ev := range events {
		p := &recordingPlayer{}
		h := newTestHandler(t, p, 7)
		h.Handle(context.Background(), payload(t, ev))
		if len(p.paths) != 0 {
			t.Errorf("%v: expected no sound, got %v", ev, p.paths)
		}
	}
}

func TestHandle_StopStatuses(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"completed", "ceva048.wav"},
		{"aborted", "ceva051.wav"},
		{"error", "ceva063.wav"},
	}
	for _, tt := range tests {
		p := &recordingPlayer{}
		h := newTestHandler(t, p, 1)
		h.Handle(context.Background(), payload(t, map[string]any{
			"hook_event_name": "stop", "status": tt.status, "loop_count": 0,
		}))
		if len(p.paths) != 1 || filepath.Base(p.paths[0]) != tt.want {
			t.Errorf("stop:%s: expected %s, got %v", tt.status, tt.want, p.paths)
		}
	}
}

func TestHandle_PlayerPanicStillDecides(t *testing.T) {
	h := newTestHandler(t, &recordingPlayer{panic: true}, 10)
	out := h.Handle(context.Background(), payload(t, map[string]any{"hook_event_name": "preToolUse", "tool_name": "Glob"}))
	if string(out) != "{}\n" {
		t.Errorf("expected fail-open {}, got %q", out)
	}
}

func TestHandle_Muted(t *testing.T) {
	p := &recordingPlayer{}
	cat, _ := catalog.Default()
	h := NewHandler(cat, p, "/assets", WithMuted(true), WithLogger(quietLogger()))
	out := h.Handle(context.Background(), payload(t, map[string]any{"hook_event_name": "sessionStart"}))
	if string(out) != "{\"continue\":true}\n" {
		t.Errorf("muted handler must still decide, got %q", out)
	}
	if len(p.paths) != 0 {
		t.Errorf("muted handler played %v", p.paths)
	}
}

func TestHandle_NilCatalogAndPlayer(t *testing.T) {
	h := NewHandler(nil, nil, "", WithLogger(quietLogger()))
	out := h.Handle(context.Background(), payload(t, map[string]any{"hook_event_name": "subagentStart"}))
	if string(out) != "{\"decision\":\"allow\"}\n" {
		t.Errorf("unexpected decision %q", out)
	}
}

func TestSelect_FactionFollowsHour(t *testing.T) {
	h := newTestHandler(t, nil, 0)
	ev := Event{HookEventName: protocol.SessionEnd}
	for hour := 0; hour < 24; hour++ {
		sel := h.Select(ev, atHour(hour)())
		if sel.Faction != faction.ForHour(hour) {
			t.Errorf("hour %d: expected %s, got %s", hour, faction.ForHour(hour), sel.Faction)
		}
		if !strings.Contains(sel.Path, sel.Faction.Dir()) {
			t.Errorf("hour %d: path %q not under %s", hour, sel.Path, sel.Faction.Dir())
		}
	}
}

// End to end with the real coordinator and marker lock: the sound file is
// found on disk, played through a no-op device, and the marker is gone after.
func TestHandle_WithCoordinator(t *testing.T) {
	assets := t.TempDir()
	dir := filepath.Join(assets, "eva_soviet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "csof016.wav"), []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}
	lockPath := filepath.Join(t.TempDir(), "eva.lock")

	coord := playback.NewCoordinator(
		lock.NewMarker(lockPath, lock.WithLogger(quietLogger())),
		playback.Noop{},
		playback.WithLogger(quietLogger()),
	)
	cat, _ := catalog.Default()
	h := NewHandler(cat, coord, assets, WithClock(atHour(10)), WithLogger(quietLogger()))

	out := h.Handle(context.Background(), payload(t, map[string]any{"hook_event_name": "sessionStart"}))
	if string(out) != "{\"continue\":true}\n" {
		t.Errorf("unexpected decision %q", out)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock marker left behind: %v", err)
	}

	// A missing asset is skipped without affecting the decision.
	out = h.Handle(context.Background(), payload(t, map[string]any{"hook_event_name": "sessionEnd"}))
	if string(out) != "{}\n" {
		t.Errorf("unexpected decision %q", out)
	}
}
