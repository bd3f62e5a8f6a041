// Binary eva-hook is the Cursor hook entry point. The host runs it once per
// agent event with the event JSON on stdin; it plays the matching EVA voice
// line and writes the hook decision to stdout.
//
// Design: fail-open. Whatever happens (unreadable stdin, broken config, no
// audio device) it writes a valid decision, at minimum {}, and exits 0.
// "eva hook" is the same entry point inside the full CLI.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"eva/internal/bootstrap"
	"eva/pkg/playback"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	run(ctx, os.Stdin, os.Stdout, os.Stderr, nil)
}

// run handles one invocation. A nil device means detect the platform player.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, device playback.Device) {
	bootstrap.ServeHook(ctx, stdin, stdout, stderr, device)
}
