package relay

import (
	"fmt"
	"time"

	"github.com/modoterra/alog/pkg/core"
)

// TimeLayout is the local-time prefix of every wire line.
const TimeLayout = "15:04:05.000"

// FormatLine prefixes body with the time of day at millisecond precision.
func FormatLine(t time.Time, body string) string {
	return t.Format(TimeLayout) + " " + body
}

// FormatEvent renders an event from a named source as
// "[SEVERITY][source] text". Embedded line breaks are kept as is.
func FormatEvent(ev core.LogEvent) string {
	return fmt.Sprintf("[%s][%s] %s", ev.Severity, ev.Source, ev.Text)
}
