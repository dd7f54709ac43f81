// Package model is the viewer's terminal UI.
package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/modoterra/alog/pkg/viewer"
)

// MaxLines is the scrollback size.
const MaxLines = 1000

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

// LineMsg appends a colored line.
type LineMsg struct {
	Text  string
	Color viewer.Color
}

// PhaseMsg reports a viewer lifecycle change.
type PhaseMsg viewer.Phase

// SupervisionMsg describes how the parent process is watched.
type SupervisionMsg string

// StopMsg ends the program from outside, e.g. when the parent exits.
type StopMsg struct{ Reason string }

type line struct {
	text     string
	rendered string
}

// App is the root Bubble Tea model.
type App struct {
	port        int
	phase       viewer.Phase
	supervision string
	stopReason  string

	lines  []line
	paused bool

	mode     Mode
	search   textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	renderer *lipgloss.Renderer

	width  int
	height int
	ready  bool
	exited bool
}

// New creates the viewer UI for port.
func New(port int) App {
	si := textinput.New()
	si.Placeholder = "filter..."
	si.CharLimit = 64

	return App{
		port:     port,
		search:   si,
		help:     help.New(),
		keys:     defaultKeys(),
		renderer: lipgloss.DefaultRenderer(),
	}
}

// Init sets the window title.
func (a App) Init() tea.Cmd {
	return tea.SetWindowTitle(fmt.Sprintf("alog viewer :%d", a.port))
}

// Exited reports whether the user asked to exit.
func (a App) Exited() bool { return a.exited }

// Lines returns the scrollback text, oldest first.
func (a App) Lines() []string {
	out := make([]string, len(a.lines))
	for i, l := range a.lines {
		out[i] = l.text
	}
	return out
}

// Paused reports whether the view stopped following new lines.
func (a App) Paused() bool { return a.paused }

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		if !a.ready {
			a.viewport = viewport.New(msg.Width, a.viewportHeight())
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = a.viewportHeight()
		}
		a.refresh()
		return a, nil

	case LineMsg:
		a.append(msg.Text, msg.Color)
		a.refresh()
		return a, nil

	case PhaseMsg:
		a.phase = viewer.Phase(msg)
		return a, nil

	case SupervisionMsg:
		a.supervision = string(msg)
		return a, nil

	case StopMsg:
		a.stopReason = msg.Reason
		return a, tea.Quit

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.ready {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == ModeSearch {
		switch msg.String() {
		case "esc":
			a.mode = ModeNormal
			a.search.SetValue("")
			a.search.Blur()
			a.refresh()
			return a, nil
		case "enter":
			a.mode = ModeNormal
			a.search.Blur()
			return a, nil
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			a.refresh()
			return a, cmd
		}
	}

	switch {
	case key.Matches(msg, a.keys.Exit), key.Matches(msg, a.keys.Quit):
		a.exited = true
		return a, tea.Quit

	case key.Matches(msg, a.keys.Clear):
		a.lines = nil
		a.append(viewer.ClearedMessage, viewer.Green)
		a.paused = false
		a.refresh()
		return a, tea.ClearScreen

	case key.Matches(msg, a.keys.Pause):
		a.paused = !a.paused
		a.refresh()
		return a, nil

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		cmd := a.search.Focus()
		return a, cmd

	case key.Matches(msg, a.keys.Bottom):
		a.paused = false
		a.refresh()
		return a, nil

	case key.Matches(msg, a.keys.PageUp):
		a.paused = true
		a.viewport.SetYOffset(a.viewport.YOffset - a.viewport.Height)
		return a, nil

	case key.Matches(msg, a.keys.PageDown):
		a.viewport.SetYOffset(a.viewport.YOffset + a.viewport.Height)
		if a.viewport.AtBottom() {
			a.paused = false
		}
		return a, nil
	}

	if a.ready {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) append(text string, color viewer.Color) {
	a.lines = append(a.lines, line{text: text, rendered: color.Render(a.renderer, text)})
	if len(a.lines) > MaxLines {
		a.lines = a.lines[len(a.lines)-MaxLines:]
	}
}

// refresh rebuilds the viewport content and follows the tail unless paused.
func (a *App) refresh() {
	if !a.ready {
		return
	}
	a.viewport.SetContent(a.content())
	if !a.paused {
		a.viewport.GotoBottom()
	}
}

func (a App) content() string {
	q := strings.ToLower(a.search.Value())
	var b strings.Builder
	for _, l := range a.lines {
		if q != "" && !strings.Contains(strings.ToLower(l.text), q) {
			continue
		}
		b.WriteString(l.rendered)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (a App) viewportHeight() int {
	// status bar and help line
	return max(a.height-2, 1)
}
