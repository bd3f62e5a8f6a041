package playback

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func fakeLookPath(available ...string) func(string) (string, error) {
	return func(bin string) (string, error) {
		for _, a := range available {
			if a == bin {
				return "/usr/bin/" + bin, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestDetectCommand(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		available []string
		wantArgv  []string
		wantErr   bool
	}{
		{"darwin afplay", "darwin", []string{"afplay"}, []string{"/usr/bin/afplay", "x.wav"}, false},
		{"linux prefers paplay", "linux", []string{"paplay", "aplay"}, []string{"/usr/bin/paplay", "x.wav"}, false},
		{"linux falls back to aplay", "linux", []string{"aplay"}, []string{"/usr/bin/aplay", "-q", "x.wav"}, false},
		{"linux nothing", "linux", nil, nil, true},
		{"plan9 unsupported", "plan9", []string{"afplay"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := detectCommand(tt.goos, fakeLookPath(tt.available...))
			if tt.wantErr {
				if !errors.Is(err, ErrNoPlayer) {
					t.Fatalf("expected ErrNoPlayer, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("detectCommand: %v", err)
			}
			got := c.Argv("x.wav")
			if strings.Join(got, " ") != strings.Join(tt.wantArgv, " ") {
				t.Errorf("expected argv %v, got %v", tt.wantArgv, got)
			}
		})
	}
}

func TestDetectCommand_WindowsScript(t *testing.T) {
	c, err := detectCommand("windows", fakeLookPath("powershell.exe"))
	if err != nil {
		t.Fatalf("detectCommand: %v", err)
	}
	argv := c.Argv(`C:\eva\ceva016.wav`)
	script := argv[len(argv)-1]
	if !strings.Contains(script, `SoundPlayer 'C:\eva\ceva016.wav'`) || !strings.Contains(script, "PlaySync") {
		t.Errorf("unexpected PowerShell script %q", script)
	}
}

func TestDetectCommand_WindowsQuotesPath(t *testing.T) {
	c, err := detectCommand("windows", fakeLookPath("powershell.exe"))
	if err != nil {
		t.Fatalf("detectCommand: %v", err)
	}
	argv := c.Argv(`C:\Users\O'Brien\ra2-eva\ceva016.wav`)
	script := argv[len(argv)-1]
	if !strings.Contains(script, `SoundPlayer 'C:\Users\O''Brien\ra2-eva\ceva016.wav'`) {
		t.Errorf("single quote not escaped in %q", script)
	}
}

func TestBuildArgs_DoesNotShareBackingArray(t *testing.T) {
	c, err := NewCommand([]string{"aplay", "-q"})
	if err != nil {
		t.Fatal(err)
	}
	a := c.buildArgs("a.wav")
	b := c.buildArgs("b.wav")
	if a[len(a)-1] != "a.wav" || b[len(b)-1] != "b.wav" {
		t.Errorf("args clobbered: %v %v", a, b)
	}
}

func TestNewCommand_Empty(t *testing.T) {
	if _, err := NewCommand(nil); err == nil {
		t.Error("expected error for empty argv")
	}
	if _, err := NewCommand([]string{""}); err == nil {
		t.Error("expected error for empty binary")
	}
}

func TestCommandPlay(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX true/false")
	}
	ok, err := NewCommand([]string{"true"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ok.Play(context.Background(), "ignored.wav"); err != nil {
		t.Errorf("true should succeed: %v", err)
	}

	bad, err := NewCommand([]string{"false"})
	if err != nil {
		t.Fatal(err)
	}
	if err := bad.Play(context.Background(), "ignored.wav"); err == nil {
		t.Error("false should fail")
	}

	missing, err := NewCommand([]string{"eva-no-such-player-xyz"})
	if err != nil {
		t.Fatal(err)
	}
	if err := missing.Start("ignored.wav"); err == nil {
		t.Error("starting a missing binary should fail")
	}
	if err := ok.Start("ignored.wav"); err != nil {
		t.Errorf("Start: %v", err)
	}
}

func TestNoopImplementsDevice(t *testing.T) {
	var d Device = Noop{}
	if err := d.Play(context.Background(), "x"); err != nil {
		t.Error(err)
	}
	if err := d.Start("x"); err != nil {
		t.Error(err)
	}
	var _ Device = (*Command)(nil)
}
