// Package playback hands EVA voice lines to the OS audio player, one at a
// time across all hook processes.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"
)

// ErrNoPlayer is returned by DetectCommand when no supported player is on PATH.
var ErrNoPlayer = errors.New("no audio player available")

// Device plays a WAV file.
type Device interface {
	// Play blocks until the file has finished playing.
	Play(ctx context.Context, path string) error
	// Start begins playback and returns without waiting for it to end.
	Start(path string) error
}

// Noop is a Device that plays nothing.
type Noop struct{}

// Play implements Device.
func (Noop) Play(context.Context, string) error { return nil }

// Start implements Device.
func (Noop) Start(string) error { return nil }

// Command plays files by running an external player.
type Command struct {
	name string
	args []string
	goos string
}

// NewCommand returns a Command for argv. The file path is appended to argv,
// except for the PowerShell player which interpolates it into a script.
func NewCommand(argv []string) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("empty player command")
	}
	return &Command{name: argv[0], args: slices.Clone(argv[1:]), goos: runtime.GOOS}, nil
}

// DetectCommand finds the native player for the current platform:
// afplay on macOS, paplay then aplay on Linux, PowerShell on Windows.
func DetectCommand() (*Command, error) {
	return detectCommand(runtime.GOOS, exec.LookPath)
}

func detectCommand(goos string, lookPath func(string) (string, error)) (*Command, error) {
	type candidate struct {
		bin  string
		args []string
	}
	var candidates []candidate
	switch goos {
	case "darwin":
		candidates = []candidate{{bin: "afplay"}}
	case "linux", "freebsd", "openbsd", "netbsd":
		candidates = []candidate{{bin: "paplay"}, {bin: "aplay", args: []string{"-q"}}}
	case "windows":
		candidates = []candidate{{bin: "powershell.exe"}}
	}

	for _, c := range candidates {
		if path, err := lookPath(c.bin); err == nil {
			return &Command{name: path, args: c.args, goos: goos}, nil
		}
	}
	return nil, fmt.Errorf("%w on %s", ErrNoPlayer, goos)
}

// Argv returns the full command line used to play path.
func (c *Command) Argv(path string) []string {
	return append([]string{c.name}, c.buildArgs(path)...)
}

// Play implements Device.
func (c *Command) Play(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, c.name, c.buildArgs(path)...) //nolint:gosec // player resolved from PATH or configuration
	if out, err := cmd.CombinedOutput(); err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%s: %w: %s", c.name, err, trimOutput(out))
		}
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

// Start implements Device. The child is reaped in the background.
func (c *Command) Start(path string) error {
	cmd := exec.Command(c.name, c.buildArgs(path)...) //nolint:gosec // player resolved from PATH or configuration
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// buildArgs creates a new slice so concurrent calls never share a backing array.
func (c *Command) buildArgs(path string) []string {
	if c.goos == "windows" && len(c.args) == 0 {
		quoted := strings.ReplaceAll(path, "'", "''")
		return []string{"-NoProfile", "-c", fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", quoted)}
	}
	args := make([]string, len(c.args)+1)
	copy(args, c.args)
	args[len(args)-1] = path
	return args
}

func trimOutput(out []byte) string {
	const limit = 200
	s := string(out)
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
