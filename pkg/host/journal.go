package host

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/modoterra/alog/pkg/core"
)

// FollowJournal streams new journal entries of a systemd unit until ctx is
// done. Each entry becomes an event whose source is the unit and whose
// severity comes from the syslog priority.
func (h *Host) FollowJournal(ctx context.Context, unit string) error {
	cmd := exec.CommandContext(ctx, "journalctl", "-f", "-u", unit, "-o", "json", "-n", "0")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("journalctl pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("journalctl start: %w", err)
	}

	scanLines(stdout, func(line string) {
		ev, ok := parseJournalEntry([]byte(line), unit)
		if ok {
			h.Event(ev)
		}
	})

	err = cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("journalctl %s: %w", unit, err)
	}
	return nil
}

type journalEntry struct {
	Message  json.RawMessage `json:"MESSAGE"`
	Priority string          `json:"PRIORITY"`
}

// parseJournalEntry decodes one line of `journalctl -o json`. MESSAGE is a
// string, or an array of bytes when the payload is not valid UTF-8.
func parseJournalEntry(line []byte, unit string) (core.LogEvent, bool) {
	var e journalEntry
	if err := json.Unmarshal(line, &e); err != nil || len(e.Message) == 0 {
		return core.LogEvent{}, false
	}

	var text string
	if err := json.Unmarshal(e.Message, &text); err != nil {
		var raw []byte
		var ints []int
		if err := json.Unmarshal(e.Message, &ints); err != nil {
			return core.LogEvent{}, false
		}
		for _, b := range ints {
			raw = append(raw, byte(b))
		}
		text = string(raw)
	}

	sev := core.SeverityInfo
	if p, err := strconv.Atoi(e.Priority); err == nil {
		sev = severityForPriority(p)
	}
	return core.LogEvent{Text: text, Severity: sev, Source: unit}, true
}

func severityForPriority(p int) core.Severity {
	switch {
	case p <= 2: // emerg, alert, crit
		return core.SeverityFatal
	case p == 3:
		return core.SeverityError
	case p == 4:
		return core.SeverityWarning
	case p == 5:
		return core.SeverityMessage
	case p == 6:
		return core.SeverityInfo
	default:
		return core.SeverityDebug
	}
}
