package config

import (
	"fmt"
	"os"
	"path/filepath"

	"eva/pkg/protocol"
)

// Paths holds all resolved EVA file locations.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Home       string // ~/.cursor/hooks/ra2-eva or EVA_HOME
	ConfigPath string // $EVA_HOME/config.yaml or EVA_CONFIG
	HooksJSON  string // ~/.cursor/hooks.json or EVA_HOOKS_JSON
	AssetsDir  string // $EVA_HOME/assets/audio
	LockPath   string // $TMPDIR/ra2-eva-audio.lock
}

// ResolvePaths returns all EVA paths, respecting env var overrides.
// Environment variables:
//   - EVA_HOME: install directory (default: ~/.cursor/hooks/ra2-eva)
//   - EVA_CONFIG: config file (default: $EVA_HOME/config.yaml, then config.toml)
//   - EVA_HOOKS_JSON: host hook registry (default: ~/.cursor/hooks.json)
//
// Asset and lock locations are plain defaults here; Load applies
// EVA_ASSETS_DIR and EVA_LOCK_PATH through the config struct.
func ResolvePaths() (*Paths, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	cursorDir := filepath.Join(userHome, protocol.CursorDir)

	home := os.Getenv("EVA_HOME")
	if home == "" {
		home = filepath.Join(cursorDir, "hooks", protocol.InstallName)
	}

	return &Paths{
		Home:       home,
		ConfigPath: resolveConfigPath(home),
		HooksJSON:  resolvePathWithEnv("EVA_HOOKS_JSON", cursorDir, protocol.HooksFile),
		AssetsDir:  filepath.Join(home, filepath.FromSlash(protocol.AssetsDir)),
		LockPath:   filepath.Join(os.TempDir(), protocol.LockFile),
	}, nil
}

// resolveConfigPath prefers EVA_CONFIG, then an existing config.yaml, then an
// existing config.toml, and finally the (possibly absent) config.yaml.
func resolveConfigPath(home string) string {
	if v := os.Getenv("EVA_CONFIG"); v != "" {
		return v
	}
	yamlPath := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	tomlPath := filepath.Join(home, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return yamlPath
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
