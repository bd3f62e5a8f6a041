package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"eva/pkg/faction"
)

// Theme defines the styling of EVA's terminal output.
type Theme struct {
	Title    lipgloss.Style
	Allied   lipgloss.Style
	Soviet   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Banner   lipgloss.Style
}

// newTheme returns a coloured theme when w is a terminal and a plain one
// otherwise, so piped output and tests see no escape sequences.
func newTheme(w io.Writer) Theme {
	if !isTTY(w) {
		plain := lipgloss.NewStyle()
		return Theme{
			Title: plain, Allied: plain, Soviet: plain, Success: plain,
			Warning: plain, Error: plain, Muted: plain, Selected: plain, Banner: plain,
		}
	}
	r := lipgloss.NewRenderer(w)
	return Theme{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Allied:   r.NewStyle().Foreground(lipgloss.Color("12")), // Blue
		Soviet:   r.NewStyle().Foreground(lipgloss.Color("9")),  // Red
		Success:  r.NewStyle().Foreground(lipgloss.Color("10")), // Green
		Warning:  r.NewStyle().Foreground(lipgloss.Color("11")), // Yellow
		Error:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("240")), // Gray
		Selected: r.NewStyle().Bold(true),
		Banner: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 3),
	}
}

// Faction styles f in its own colour.
func (t Theme) Faction(f faction.Faction) string {
	label := "Allied EVA"
	style := t.Allied
	if f == faction.Soviet {
		label = "Soviet EVA"
		style = t.Soviet
	}
	return style.Render(label)
}

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
