// Package config loads EVA's settings: defaults, then an optional YAML or
// TOML file, then EVA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eva/internal/logging"
	"eva/pkg/catalog"
	"eva/pkg/lock"
	"eva/pkg/playback"
	"eva/pkg/soundkey"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the full EVA configuration.
type Config struct {
	Enabled   bool                           `yaml:"enabled" toml:"enabled" env:"EVA_ENABLED"`
	AssetsDir string                         `yaml:"assets_dir,omitempty" toml:"assets_dir,omitempty" env:"EVA_ASSETS_DIR"`
	Lock      LockConfig                     `yaml:"lock" toml:"lock"`
	Playback  PlaybackConfig                 `yaml:"playback" toml:"playback"`
	Log       LogConfig                      `yaml:"log" toml:"log"`
	Sounds    map[soundkey.Key]catalog.Entry `yaml:"sounds,omitempty" toml:"sounds,omitempty"`
}

// LockConfig tunes the cross-process playback lock.
type LockConfig struct {
	Path         string   `yaml:"path,omitempty" toml:"path,omitempty" env:"EVA_LOCK_PATH"`
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval" env:"EVA_LOCK_POLL"`
	StaleAfter   Duration `yaml:"stale_after" toml:"stale_after" env:"EVA_LOCK_STALE"`
	WaitTimeout  Duration `yaml:"wait_timeout" toml:"wait_timeout" env:"EVA_LOCK_WAIT"`
}

// PlaybackConfig selects the player, the lock policy and the bound on a
// synchronous playback.
type PlaybackConfig struct {
	Policy  string   `yaml:"policy" toml:"policy" env:"EVA_PLAYBACK_POLICY"`
	Timeout Duration `yaml:"timeout" toml:"timeout" env:"EVA_PLAYBACK_TIMEOUT"`
	Command []string `yaml:"command,omitempty" toml:"command,omitempty" env:"EVA_PLAYER" envSeparator:" "`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" env:"EVA_LOG_LEVEL"`
}

// Duration is a time.Duration written as "50ms", "5s" in config files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a fully-populated Config for the given paths.
func Default(p *Paths) Config {
	return Config{
		Enabled:   true,
		AssetsDir: p.AssetsDir,
		Lock: LockConfig{
			Path:         p.LockPath,
			PollInterval: Duration(lock.DefaultPollInterval),
			StaleAfter:   Duration(lock.DefaultStaleAfter),
			WaitTimeout:  Duration(lock.DefaultWaitTimeout),
		},
		Playback: PlaybackConfig{
			Policy:  string(playback.PolicySync),
			Timeout: Duration(playback.DefaultPlaybackTimeout),
		},
		Log:      LogConfig{Level: string(logging.LevelInfo)},
	}
}

// Load builds the configuration from defaults, the config file named by
// p.ConfigPath (if present), and the environment, then validates it.
func Load(p *Paths) (Config, error) {
	cfg := Default(p)
	if err := LoadFile(p.ConfigPath, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile decodes path into cfg, picking the decoder by extension. A missing
// file leaves cfg unchanged.
func LoadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	//nolint:gosec // config path comes from EVA_HOME / EVA_CONFIG
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges, the poll < stale < wait ordering, and that a
// playback ends before its marker goes stale.
func (c Config) Validate() error {
	var errs []error

	poll, stale, wait := c.Lock.PollInterval.Std(), c.Lock.StaleAfter.Std(), c.Lock.WaitTimeout.Std()
	if poll <= 0 {
		errs = append(errs, fmt.Errorf("lock.poll_interval must be positive, got %s", poll))
	}
	if stale <= poll {
		errs = append(errs, fmt.Errorf("lock.stale_after (%s) must exceed lock.poll_interval (%s)", stale, poll))
	}
	if wait <= stale {
		errs = append(errs, fmt.Errorf("lock.wait_timeout (%s) must exceed lock.stale_after (%s)", wait, stale))
	}
	if timeout := c.Playback.Timeout.Std(); timeout <= 0 {
		errs = append(errs, fmt.Errorf("playback.timeout must be positive, got %s", timeout))
	} else if timeout >= stale {
		errs = append(errs, fmt.Errorf("playback.timeout (%s) must be below lock.stale_after (%s)", timeout, stale))
	}
	if c.Lock.Path == "" {
		errs = append(errs, errors.New("lock.path must not be empty"))
	}
	if _, err := playback.ParsePolicy(c.Playback.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
