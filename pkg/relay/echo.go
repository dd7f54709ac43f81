package relay

import (
	"context"
	"log/slog"

	"github.com/coreos/go-systemd/v22/journal"

	"github.com/modoterra/alog/pkg/config"
	"github.com/modoterra/alog/pkg/core"
)

// EchoSink writes relayed host messages to the host's own log output.
type EchoSink interface {
	Echo(sev core.Severity, msg string)
}

// SlogEcho echoes to an slog logger at the mapped level.
type SlogEcho struct {
	Logger *slog.Logger
}

func (e SlogEcho) Echo(sev core.Severity, msg string) {
	e.Logger.Log(context.Background(), SlogLevel(sev), msg)
}

// JournalEcho echoes to the systemd journal, falling back to an slog
// logger when the journal rejects the entry.
type JournalEcho struct {
	Identifier string
	Fallback   *slog.Logger
}

func (e JournalEcho) Echo(sev core.Severity, msg string) {
	vars := map[string]string{"SYSLOG_IDENTIFIER": e.Identifier}
	if err := journal.Send(msg, journalPriority(sev), vars); err != nil && e.Fallback != nil {
		e.Fallback.Log(context.Background(), SlogLevel(sev), msg)
	}
}

// NewEcho picks the sink named in the config. The journal is only used
// when it is reachable; otherwise messages go to logger.
func NewEcho(kind string, logger *slog.Logger) EchoSink {
	if kind == config.EchoJournal && journal.Enabled() {
		return JournalEcho{Identifier: SourceName, Fallback: logger}
	}
	if kind == config.EchoJournal {
		logger.Warn("journal not available, echoing to log output")
	}
	return SlogEcho{Logger: logger}
}

// SlogLevel maps a host severity onto slog levels.
func SlogLevel(sev core.Severity) slog.Level {
	switch sev {
	case core.SeverityTrace:
		return slog.LevelDebug - 4
	case core.SeverityDebug:
		return slog.LevelDebug
	case core.SeverityWarning:
		return slog.LevelWarn
	case core.SeverityError:
		return slog.LevelError
	case core.SeverityFatal:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

func journalPriority(sev core.Severity) journal.Priority {
	switch sev {
	case core.SeverityTrace, core.SeverityDebug:
		return journal.PriDebug
	case core.SeverityMessage:
		return journal.PriNotice
	case core.SeverityWarning:
		return journal.PriWarning
	case core.SeverityError:
		return journal.PriErr
	case core.SeverityFatal:
		return journal.PriCrit
	default:
		return journal.PriInfo
	}
}
