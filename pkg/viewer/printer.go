package viewer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// WriterPrinter prints colored lines to a writer, one whole line per
// call.
type WriterPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	out      *termenv.Output
	renderer *lipgloss.Renderer
	crlf     bool
}

// NewWriterPrinter colors output with the given termenv profile;
// termenv.Ascii disables color.
func NewWriterPrinter(w io.Writer, profile termenv.Profile) *WriterPrinter {
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	return &WriterPrinter{
		w:        w,
		out:      termenv.NewOutput(w, termenv.WithProfile(profile)),
		renderer: renderer,
	}
}

// SetCRLF makes line breaks carriage-return/line-feed pairs, which a
// terminal in raw mode needs.
func (p *WriterPrinter) SetCRLF(on bool) {
	p.mu.Lock()
	p.crlf = on
	p.mu.Unlock()
}

func (p *WriterPrinter) Print(text string, color Color) {
	line := color.Render(p.renderer, text)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.crlf {
		fmt.Fprint(p.w, strings.ReplaceAll(line, "\n", "\r\n")+"\r\n")
		return
	}
	fmt.Fprintln(p.w, line)
}

// Clear wipes the terminal. It does nothing without color support, where
// the output is likely not a terminal.
func (p *WriterPrinter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out.Profile == termenv.Ascii {
		return
	}
	p.out.ClearScreen()
}
