package core

import (
	"fmt"
	"strings"
)

// Severity is the level a host attached to a log event.
type Severity int

const (
	SeverityTrace Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityMessage
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = [...]string{
	SeverityTrace:   "TRACE",
	SeverityDebug:   "DEBUG",
	SeverityInfo:    "INFO",
	SeverityMessage: "MESSAGE",
	SeverityWarning: "WARNING",
	SeverityError:   "ERROR",
	SeverityFatal:   "FATAL",
}

// String returns the upper-case name used on the wire, e.g. "WARNING".
func (s Severity) String() string {
	if s < SeverityTrace || s > SeverityFatal {
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts the wire names case-insensitively, plus "warn".
func ParseSeverity(s string) (Severity, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARN" {
		return SeverityWarning, nil
	}
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}
