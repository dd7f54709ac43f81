package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/modoterra/alog/pkg/viewer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	phaseOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	phaseWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	phaseError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (a App) View() string {
	if !a.ready {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.viewport.View(),
		a.renderStatusBar(),
		a.renderHelp(),
	)
}

func (a App) renderStatusBar() string {
	left := titleStyle.Render("alog") + " " +
		dimStyle.Render(fmt.Sprintf(":%d", a.port)) + " " +
		colorPhase(a.phase)
	if a.paused {
		left += " " + phaseWarn.Render("[PAUSED]")
	}
	if q := a.search.Value(); q != "" && a.mode == ModeNormal {
		left += " " + dimStyle.Render("filter: "+q)
	}

	right := dimStyle.Render(a.supervision)
	if a.mode == ModeSearch {
		right = a.search.View()
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a App) renderHelp() string {
	if a.mode == ModeSearch {
		return helpStyle.Render("enter:apply esc:cancel")
	}
	return a.help.View(a.keys)
}

func colorPhase(p viewer.Phase) string {
	switch p {
	case viewer.PhaseReceiving, viewer.PhaseListening:
		return phaseOK.Render(p.String())
	case viewer.PhaseReconnecting, viewer.PhaseStarting:
		return phaseWarn.Render(p.String())
	default:
		return phaseError.Render(p.String())
	}
}
