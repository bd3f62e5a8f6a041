package bootstrap

import (
	"context"
	"fmt"
	"io"

	"eva/pkg/playback"
)

// MaxHookStdinBytes caps how much of stdin a hook invocation reads. Payloads
// are small; anything larger is truncated, fails to decode and yields {}.
const MaxHookStdinBytes = 1 << 20

// emptyJSON is written when nothing better can be produced.
var emptyJSON = []byte("{}\n") //nolint:gochecknoglobals // constant response bytes

// ServeHook runs one hook invocation: it reads the payload from stdin, plays
// the matching sound and writes the decision to stdout. Whatever happens,
// stdout receives a valid decision, at minimum {}. A nil device means detect
// the platform player.
func ServeHook(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, device playback.Device) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "eva hook: panic: %v\n", r)
			writeOut(stdout, stderr, emptyJSON)
		}
	}()

	input, err := io.ReadAll(io.LimitReader(stdin, MaxHookStdinBytes))
	if err != nil {
		fmt.Fprintf(stderr, "eva hook: failed to read stdin: %v\n", err)
		writeOut(stdout, stderr, emptyJSON)
		return
	}

	rt, err := Load(Options{Stderr: stderr, Device: device})
	if err != nil {
		fmt.Fprintf(stderr, "eva hook: %v\n", err)
		writeOut(stdout, stderr, emptyJSON)
		return
	}

	writeOut(stdout, stderr, rt.Handler.Handle(ctx, input))
}

// writeOut writes data to stdout, logging any write error to stderr.
func writeOut(stdout, stderr io.Writer, data []byte) {
	if _, err := stdout.Write(data); err != nil {
		fmt.Fprintf(stderr, "eva hook: stdout write error: %v\n", err)
	}
}
