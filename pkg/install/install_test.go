package install

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eva/pkg/faction"
	"eva/pkg/protocol"
)

// fixture builds a source package: assets/audio/eva_{allied,soviet}/*.wav
// plus a fake binary.
func fixture(t *testing.T) (assets, binary string) {
	t.Helper()
	root := t.TempDir()
	assets = filepath.Join(root, "assets")
	files := map[string]string{
		"audio/eva_allied/ceva016.wav": "RIFF-a16",
		"audio/eva_allied/ceva015.wav": "RIFF-a15",
		"audio/eva_allied/README.txt":  "not a sound",
		"audio/eva_soviet/csof016.wav": "RIFF-s16",
	}
	for rel, content := range files {
		path := filepath.Join(assets, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	binary = filepath.Join(root, "eva-build")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil { //nolint:gosec // test binary
		t.Fatal(err)
	}
	return assets, binary
}

func decodeHooks(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("hooks.json is not valid JSON: %v\n%s", err, data)
	}
	return doc
}

func TestInstall_FreshHome(t *testing.T) {
	assets, binary := fixture(t)
	base := t.TempDir()
	home := filepath.Join(base, "hooks", protocol.InstallName)
	hooksJSON := filepath.Join(base, "hooks.json")

	var steps []string
	rep, err := Install(Options{
		Home: home, HooksJSON: hooksJSON, Assets: assets, Binary: binary,
		Step: func(msg string) { steps = append(steps, msg) },
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	if len(steps) != 5 || !strings.HasPrefix(steps[0], "[1/5]") || !strings.HasPrefix(steps[4], "[5/5]") {
		t.Errorf("unexpected steps: %v", steps)
	}
	if rep.Sounds[faction.Allied] != 2 || rep.Sounds[faction.Soviet] != 1 {
		t.Errorf("unexpected sound counts: %v", rep.Sounds)
	}
	if _, err := os.Stat(filepath.Join(home, BinaryName())); err != nil {
		t.Errorf("binary not installed: %v", err)
	}
	wav := filepath.Join(home, "assets", "audio", "eva_soviet", "csof016.wav")
	if data, err := os.ReadFile(wav); err != nil || string(data) != "RIFF-s16" {
		t.Errorf("asset not copied: %v %q", err, data)
	}

	doc := decodeHooks(t, hooksJSON)
	if doc["version"] != float64(1) {
		t.Errorf("expected version 1, got %v", doc["version"])
	}
	hooks := doc["hooks"].(map[string]any)
	if len(hooks) != len(protocol.AllEventKinds) {
		t.Errorf("expected %d events, got %d", len(protocol.AllEventKinds), len(hooks))
	}
	entries := hooks["stop"].([]any)
	cmd := entries[0].(map[string]any)["command"].(string)
	if cmd != rep.Command || !strings.HasSuffix(cmd, " hook") {
		t.Errorf("unexpected command %q (report %q)", cmd, rep.Command)
	}
}

func TestInstall_PreservesForeignHooksAndConfig(t *testing.T) {
	assets, binary := fixture(t)
	base := t.TempDir()
	home := filepath.Join(base, "ra2-eva")
	hooksJSON := filepath.Join(base, "hooks.json")

	existing := `{
  "version": 1,
  "theme": "dark",
  "hooks": {
    "stop": [{"command": "notify-send done", "timeout": 5}],
    "sessionStart": [{"command": "bun run /old/ra2-eva/index.ts"}],
    "customEvent": [{"command": "other"}]
  }
}`
	if err := os.WriteFile(hooksJSON, []byte(existing), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	rep, err := Install(Options{Home: home, HooksJSON: hooksJSON, Assets: assets, Binary: binary})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if rep.Replaced != 1 {
		t.Errorf("expected 1 replaced entry, got %d", rep.Replaced)
	}

	doc := decodeHooks(t, hooksJSON)
	if doc["theme"] != "dark" {
		t.Error("unknown top-level key lost")
	}
	hooks := doc["hooks"].(map[string]any)
	stop := hooks["stop"].([]any)
	if len(stop) != 2 {
		t.Fatalf("expected foreign + EVA stop entries, got %v", stop)
	}
	foreign := stop[0].(map[string]any)
	if foreign["command"] != "notify-send done" || foreign["timeout"] != float64(5) {
		t.Errorf("foreign entry altered: %v", foreign)
	}
	if start := hooks["sessionStart"].([]any); len(start) != 1 {
		t.Errorf("old EVA entry should be replaced, got %v", start)
	}
	if _, ok := hooks["customEvent"]; !ok {
		t.Error("foreign event list lost")
	}
	if data, _ := os.ReadFile(filepath.Join(home, "config.yaml")); string(data) != "enabled: false\n" {
		t.Errorf("user config not preserved: %q", data)
	}

	// Re-installing is idempotent.
	if _, err := Install(Options{Home: home, HooksJSON: hooksJSON, Assets: assets, Binary: binary}); err != nil {
		t.Fatal(err)
	}
	hooks = decodeHooks(t, hooksJSON)["hooks"].(map[string]any)
	if got := len(hooks["stop"].([]any)); got != 2 {
		t.Errorf("reinstall duplicated entries: %d", got)
	}
}

func TestInstall_DryRunTouchesNothing(t *testing.T) {
	assets, binary := fixture(t)
	base := t.TempDir()
	home := filepath.Join(base, "ra2-eva")
	hooksJSON := filepath.Join(base, "hooks.json")

	rep, err := Install(Options{Home: home, HooksJSON: hooksJSON, Assets: assets, Binary: binary, DryRun: true})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if rep.Sounds[faction.Allied] != 2 {
		t.Errorf("dry run should still count sounds: %v", rep.Sounds)
	}
	if _, err := os.Stat(home); !os.IsNotExist(err) {
		t.Errorf("dry run created %s", home)
	}
	if _, err := os.Stat(hooksJSON); !os.IsNotExist(err) {
		t.Errorf("dry run wrote %s", hooksJSON)
	}
}

func TestInstall_Errors(t *testing.T) {
	assets, binary := fixture(t)
	base := t.TempDir()

	_, err := Install(Options{Home: base, HooksJSON: filepath.Join(base, "h.json"), Assets: t.TempDir(), Binary: binary})
	if !errors.Is(err, ErrNoAssets) {
		t.Errorf("expected ErrNoAssets, got %v", err)
	}

	bad := filepath.Join(base, "hooks.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Install(Options{Home: filepath.Join(base, "h"), HooksJSON: bad, Assets: assets, Binary: binary}); err == nil {
		t.Error("expected error for invalid hooks.json")
	}
	if data, _ := os.ReadFile(bad); string(data) != "{not json" {
		t.Error("invalid hooks.json must not be overwritten")
	}

	if _, err := Install(Options{Assets: assets}); err == nil {
		t.Error("expected error without paths")
	}
}

func TestUninstall(t *testing.T) {
	assets, binary := fixture(t)
	base := t.TempDir()
	home := filepath.Join(base, "hooks", "ra2-eva")
	hooksJSON := filepath.Join(base, "hooks.json")
	if err := os.WriteFile(hooksJSON, []byte(`{"version":1,"hooks":{"stop":[{"command":"notify-send"}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Install(Options{Home: home, HooksJSON: hooksJSON, Assets: assets, Binary: binary}); err != nil {
		t.Fatal(err)
	}

	rep, err := Uninstall(Options{Home: home, HooksJSON: hooksJSON})
	if err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if !rep.RemovedHome || rep.RemovedHooks != len(protocol.AllEventKinds) {
		t.Errorf("unexpected report %+v", rep)
	}
	if _, err := os.Stat(home); !os.IsNotExist(err) {
		t.Errorf("home not removed: %v", err)
	}
	hooks := decodeHooks(t, hooksJSON)["hooks"].(map[string]any)
	if len(hooks) != 1 || len(hooks["stop"].([]any)) != 1 {
		t.Errorf("expected only the foreign stop hook, got %v", hooks)
	}

	// Second run has nothing to do.
	rep, err = Uninstall(Options{Home: home, HooksJSON: hooksJSON})
	if err != nil || rep.RemovedHome || rep.RemovedHooks != 0 {
		t.Errorf("expected no-op, got %+v %v", rep, err)
	}
}

func TestInstallUninstall_CustomHome(t *testing.T) {
	assets, binary := fixture(t)
	base := t.TempDir()
	home := filepath.Join(base, "opt", "eva")
	hooksJSON := filepath.Join(base, "hooks.json")
	opts := Options{Home: home, HooksJSON: hooksJSON, Assets: assets, Binary: binary}

	if _, err := Install(opts); err != nil {
		t.Fatal(err)
	}
	rep, err := Install(opts)
	if err != nil {
		t.Fatalf("reinstall: %v", err)
	}
	if rep.Replaced != len(protocol.AllEventKinds) {
		t.Errorf("reinstall should replace the previous entries, replaced %d", rep.Replaced)
	}
	hooks := decodeHooks(t, hooksJSON)["hooks"].(map[string]any)
	if got := len(hooks["stop"].([]any)); got != 1 {
		t.Errorf("expected one stop entry after reinstall, got %d", got)
	}

	urep, err := Uninstall(Options{Home: home, HooksJSON: hooksJSON})
	if err != nil {
		t.Fatal(err)
	}
	if urep.RemovedHooks != len(protocol.AllEventKinds) {
		t.Errorf("uninstall left entries behind: %+v", urep)
	}
}

func TestHookCommand(t *testing.T) {
	if got := HookCommand("/home/a/.cursor/hooks/ra2-eva/eva"); got != "/home/a/.cursor/hooks/ra2-eva/eva hook" {
		t.Errorf("unexpected command %q", got)
	}
	if got := HookCommand("/Users/A B/ra2-eva/eva"); got != `"/Users/A B/ra2-eva/eva" hook` {
		t.Errorf("expected quoted path, got %q", got)
	}
}

func TestResolveAssetSource(t *testing.T) {
	assets, _ := fixture(t)
	got, err := ResolveAssetSource(assets)
	if err != nil || got != filepath.Join(assets, "audio") {
		t.Errorf("package dir: got %q, %v", got, err)
	}
	got, err = ResolveAssetSource(filepath.Join(assets, "audio"))
	if err != nil || got != filepath.Join(assets, "audio") {
		t.Errorf("audio dir: got %q, %v", got, err)
	}
	if _, err := ResolveAssetSource(""); !errors.Is(err, ErrNoAssets) {
		t.Errorf("expected ErrNoAssets, got %v", err)
	}
}
