package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color is one of the sixteen console colors the viewer prints with.
type Color int

const (
	Gray Color = iota // neutral
	Red
	DarkRed
	Green
	DarkGreen
	Blue
	Yellow
	DarkYellow
	Magenta
	DarkMagenta
	Cyan
	DarkCyan
)

var colorNames = [...]string{
	Gray:        "gray",
	Red:         "red",
	DarkRed:     "dark-red",
	Green:       "green",
	DarkGreen:   "dark-green",
	Blue:        "blue",
	Yellow:      "yellow",
	DarkYellow:  "dark-yellow",
	Magenta:     "magenta",
	DarkMagenta: "dark-magenta",
	Cyan:        "cyan",
	DarkCyan:    "dark-cyan",
}

// ANSI palette indexes; bright variants are 8 above their dark ones.
var colorANSI = [...]lipgloss.Color{
	Gray:        "7",
	Red:         "9",
	DarkRed:     "1",
	Green:       "10",
	DarkGreen:   "2",
	Blue:        "12",
	Yellow:      "11",
	DarkYellow:  "3",
	Magenta:     "13",
	DarkMagenta: "5",
	Cyan:        "14",
	DarkCyan:    "6",
}

func (c Color) String() string {
	if c < Gray || c > DarkCyan {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

// Lipgloss returns the terminal color. Unknown values render neutral.
func (c Color) Lipgloss() lipgloss.Color {
	if c < Gray || c > DarkCyan {
		return colorANSI[Gray]
	}
	return colorANSI[c]
}

// Render colors text for r one line at a time, so multi-line records are
// not padded into a block. Tabs are left alone.
func (c Color) Render(r *lipgloss.Renderer, text string) string {
	style := r.NewStyle().Foreground(c.Lipgloss()).TabWidth(lipgloss.NoTabConversion)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return strings.Join(lines, "\n")
}
