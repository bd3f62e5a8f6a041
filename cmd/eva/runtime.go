package main

import (
	"io"

	"eva/internal/bootstrap"
	"eva/pkg/playback"
)

// hookDevice overrides audio detection; tests set it to playback.Noop{}.
var hookDevice playback.Device //nolint:gochecknoglobals // test seam

// loadRuntime wires the playback stack for interactive commands. Unlike the
// hook path, a broken config is reported to the user.
func loadRuntime(stderr io.Writer) (*bootstrap.Runtime, error) {
	return bootstrap.Load(bootstrap.Options{Stderr: stderr, Strict: true, Device: hookDevice})
}
