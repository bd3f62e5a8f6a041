package main

import (
	"fmt"
	"io"
	"sync"
)

// progressLog prints step-by-step progress for install and uninstall.
type progressLog struct {
	w     io.Writer
	theme Theme
	mu    sync.Mutex
}

func newProgressLog(w io.Writer, theme Theme) *progressLog {
	return &progressLog{w: w, theme: theme}
}

// Step prints a stage as it starts.
func (p *progressLog) Step(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.theme.Warning.Render(msg))
}

// Done prints a completed item with a checkmark.
func (p *progressLog) Done(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %s\n", p.theme.Success.Render("✓"), msg)
}

// Detail prints an indented line under the current stage.
func (p *progressLog) Detail(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "    "+format+"\n", args...)
}
