package model

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/alog/pkg/viewer"
)

// ProgramPrinter forwards lines into a running program, so the terminal
// has a single writer. Lines sent after the program ends are dropped.
type ProgramPrinter struct {
	Program *tea.Program
}

func (p ProgramPrinter) Print(text string, color viewer.Color) {
	p.Program.Send(LineMsg{Text: text, Color: color})
}

// Clear is a no-op; the UI clears itself on ctrl+l.
func (p ProgramPrinter) Clear() {}
