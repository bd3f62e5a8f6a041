package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"eva/pkg/catalog"
	"eva/pkg/faction"
	"eva/pkg/hook"
	"eva/pkg/playback"
	"eva/pkg/soundkey"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// previewItem is one playable voice line.
type previewItem struct {
	Key     soundkey.Key
	Faction faction.Faction
	ID      string
	Path    string
	Present bool
}

// previewItems flattens the catalog into one row per key, faction and file.
func previewItems(cat *catalog.Catalog, assetsDir string) []previewItem {
	var items []previewItem
	for _, k := range cat.Keys() {
		entry, _ := cat.Entry(k)
		for _, f := range faction.All {
			for _, id := range entry.For(f) {
				path := catalog.Path(assetsDir, f, id)
				_, err := os.Stat(path)
				items = append(items, previewItem{Key: k, Faction: f, ID: id, Path: path, Present: err == nil})
			}
		}
	}
	return items
}

// previewKeys are the key bindings of the preview browser.
type previewKeys struct {
	Up     key.Binding
	Down   key.Binding
	Play   key.Binding
	Filter key.Binding
	Quit   key.Binding
}

func defaultPreviewKeys() previewKeys {
	return previewKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Play:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
		Filter: key.NewBinding(key.WithKeys("f", "tab"), key.WithHelp("f", "faction")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// playedMsg reports the end of a playback started from the browser.
type playedMsg struct {
	item    previewItem
	outcome playback.Outcome
}

// previewModel is the bubbletea model of "eva preview".
type previewModel struct {
	ctx     context.Context
	player  hook.Player
	all     []previewItem
	visible []previewItem
	filter  faction.Faction // empty shows both
	cursor  int
	offset  int
	height  int
	playing bool
	status  string
	spinner spinner.Model
	keys    previewKeys
	theme   Theme
}

func newPreviewModel(ctx context.Context, player hook.Player, items []previewItem, theme Theme) previewModel {
	m := previewModel{
		ctx:     ctx,
		player:  player,
		all:     items,
		height:  20,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:    defaultPreviewKeys(),
		theme:   theme,
	}
	m.applyFilter()
	return m
}

func (m *previewModel) applyFilter() {
	var visible []previewItem
	for _, it := range m.all {
		if m.filter == "" || it.Faction == m.filter {
			visible = append(visible, it)
		}
	}
	m.visible = visible
	m.cursor, m.offset = 0, 0
}

// Init implements tea.Model.
func (m previewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title, blank line, status and help take four rows.
		m.height = max(msg.Height-4, 1)
		m.scroll()
	case playedMsg:
		m.playing = false
		m.status = fmt.Sprintf("%s %s: %s", msg.item.Key, msg.item.ID, msg.outcome)
	case spinner.TickMsg:
		if !m.playing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.scroll()
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			m.scroll()
		case key.Matches(msg, m.keys.Filter):
			m.filter = nextFilter(m.filter)
			m.applyFilter()
		case key.Matches(msg, m.keys.Play):
			if m.playing || len(m.visible) == 0 {
				return m, nil
			}
			item := m.visible[m.cursor]
			m.playing = true
			m.status = "playing " + item.ID
			return m, tea.Batch(m.spinner.Tick, m.playCmd(item))
		}
	}
	return m, nil
}

func (m previewModel) playCmd(item previewItem) tea.Cmd {
	return func() tea.Msg {
		return playedMsg{item: item, outcome: m.player.Play(m.ctx, item.Path)}
	}
}

// scroll keeps the cursor inside the visible window.
func (m *previewModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func nextFilter(f faction.Faction) faction.Faction {
	switch f {
	case "":
		return faction.Allied
	case faction.Allied:
		return faction.Soviet
	default:
		return ""
	}
}

// View implements tea.Model.
func (m previewModel) View() string {
	var b strings.Builder

	filter := "all factions"
	if m.filter != "" {
		filter = m.theme.Faction(m.filter)
	}
	fmt.Fprintf(&b, "%s  %s\n\n", m.theme.Title.Render("EVA voice lines"), filter)

	end := min(m.offset+m.height, len(m.visible))
	for i := m.offset; i < end; i++ {
		it := m.visible[i]
		style := m.theme.Allied
		if it.Faction == faction.Soviet {
			style = m.theme.Soviet
		}
		line := fmt.Sprintf("%-22s %s", it.Key, style.Render(it.ID))
		if !it.Present {
			line += " " + m.theme.Error.Render("(missing)")
		}
		if i == m.cursor {
			line = m.theme.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(m.theme.Muted.Render("  no sounds") + "\n")
	}

	status := m.status
	if m.playing {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(status + "\n")
	b.WriteString(m.theme.Muted.Render(m.helpLine()))
	return b.String()
}

func (m previewModel) helpLine() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Play, m.keys.Filter, m.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
