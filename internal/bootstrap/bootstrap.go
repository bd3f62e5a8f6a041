// Package bootstrap assembles the playback stack from configuration. Both
// the standalone hook binary and the eva CLI go through it so they resolve
// sounds, lock and play identically.
package bootstrap

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"eva/internal/logging"
	"eva/pkg/catalog"
	"eva/pkg/config"
	"eva/pkg/hook"
	"eva/pkg/lock"
	"eva/pkg/playback"
	"eva/pkg/protocol"

	"github.com/google/uuid"
)

// Runtime is the fully wired playback stack of one process.
type Runtime struct {
	Paths       *config.Paths
	Config      config.Config
	Log         *slog.Logger
	Catalog     *catalog.Catalog
	Locker      *lock.Marker
	Device      playback.Device
	Coordinator *playback.Coordinator
	Handler     *hook.Handler

	// ConfigErr is set when configuration could not be loaded and defaults
	// were used instead.
	ConfigErr error
}

// Options tweaks how Load builds the runtime.
type Options struct {
	// Stderr receives diagnostics. Nil discards them.
	Stderr io.Writer
	// Strict makes configuration errors fatal instead of falling back to
	// defaults. The hook path never sets it.
	Strict bool
	// Device overrides the detected audio device.
	Device playback.Device
}

// Load resolves paths and configuration and wires the playback stack.
// Without Strict it never fails: every problem is logged and replaced by a
// working default.
func Load(opts Options) (*Runtime, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	rt := &Runtime{}

	paths, err := config.ResolvePaths()
	if err != nil {
		if opts.Strict {
			return nil, err
		}
		rt.ConfigErr = err
		paths = fallbackPaths()
	}
	rt.Paths = paths

	cfg, err := config.Load(paths)
	if err != nil {
		if opts.Strict {
			return nil, err
		}
		rt.ConfigErr = errors.Join(rt.ConfigErr, err)
		cfg = config.Default(paths)
	}
	rt.Config = cfg

	level, _ := logging.ParseLevel(cfg.Log.Level)
	rt.Log = logging.New(stderr, level).With("invocation", uuid.NewString())
	if rt.ConfigErr != nil {
		rt.Log.Warn("config unusable, using defaults", "path", paths.ConfigPath, "error", rt.ConfigErr)
	}

	base, err := catalog.Default()
	if err != nil {
		// The embedded table is covered by tests; an empty catalog keeps the
		// hook answering if it ever fails to parse.
		rt.Log.Error("load sound table", "error", err)
		base = catalog.New(nil)
	}
	rt.Catalog = base.Merge(cfg.Sounds)

	rt.Device = opts.Device
	if rt.Device == nil {
		rt.Device = detectDevice(cfg.Playback.Command, rt.Log)
	}

	rt.Locker = lock.NewMarker(cfg.Lock.Path,
		lock.WithPollInterval(cfg.Lock.PollInterval.Std()),
		lock.WithLogger(rt.Log),
	)

	policy, _ := playback.ParsePolicy(cfg.Playback.Policy)
	rt.Coordinator = playback.NewCoordinator(rt.Locker, rt.Device,
		playback.WithPolicy(policy),
		playback.WithTimeouts(cfg.Lock.WaitTimeout.Std(), cfg.Lock.StaleAfter.Std()),
		playback.WithPlaybackTimeout(cfg.Playback.Timeout.Std()),
		playback.WithLogger(rt.Log),
	)

	rt.Handler = hook.NewHandler(rt.Catalog, rt.Coordinator, cfg.AssetsDir,
		hook.WithLogger(rt.Log),
		hook.WithMuted(!cfg.Enabled),
	)
	return rt, nil
}

func detectDevice(argv []string, log *slog.Logger) playback.Device {
	var (
		cmd *playback.Command
		err error
	)
	if len(argv) > 0 {
		cmd, err = playback.NewCommand(argv)
	} else {
		cmd, err = playback.DetectCommand()
	}
	if err != nil {
		log.Warn("no audio player, sounds disabled", "error", err)
		return playback.Noop{}
	}
	log.Debug("audio player", "argv", cmd.Argv("<file>"))
	return cmd
}

// fallbackPaths is used when the home directory cannot be determined.
func fallbackPaths() *config.Paths {
	home := filepath.Join(os.TempDir(), protocol.InstallName)
	return &config.Paths{
		Home:       home,
		ConfigPath: filepath.Join(home, "config.yaml"),
		HooksJSON:  filepath.Join(home, protocol.HooksFile),
		AssetsDir:  filepath.Join(home, filepath.FromSlash(protocol.AssetsDir)),
		LockPath:   filepath.Join(os.TempDir(), protocol.LockFile),
	}
}
