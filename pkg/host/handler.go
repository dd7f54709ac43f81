package host

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/modoterra/alog/pkg/core"
)

// SourceKey is the attribute that turns a record into a LogEvent.
const SourceKey = "source"

// Handler is an slog.Handler that feeds records into a Host. Records with
// a top-level "source" attribute become events from that source; the rest
// go to the hook matching their level. Other attributes are appended to
// the message as key=value.
type Handler struct {
	host   *Host
	level  slog.Leveler
	source string
	attrs  string // preformatted WithAttrs output
	prefix string // open groups, dot-terminated
}

// NewHandler creates a bridge into h. A nil level means slog.LevelInfo.
func NewHandler(h *Host, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{host: h, level: level}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	source := h.source
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == SourceKey {
			source = a.Value.String()
			return true
		}
		appendAttr(&b, h.prefix, a)
		return true
	})
	text := b.String()

	switch {
	case source != "":
		h.host.Event(core.LogEvent{Text: text, Severity: SeverityFor(r.Level), Source: source})
	case r.Level >= slog.LevelError:
		h.host.Error(text)
	case r.Level >= slog.LevelWarn:
		h.host.Warning(text)
	default:
		h.host.Log(text)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == SourceKey {
			c.source = a.Value.String()
			continue
		}
		appendAttr(&b, h.prefix, a)
	}
	c.attrs = b.String()
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

// SeverityFor maps an slog level onto a host severity.
func SeverityFor(l slog.Level) core.Severity {
	switch {
	case l < slog.LevelDebug:
		return core.SeverityTrace
	case l < slog.LevelInfo:
		return core.SeverityDebug
	case l < slog.LevelWarn:
		return core.SeverityInfo
	case l < slog.LevelError:
		return core.SeverityWarning
	case l < slog.LevelError+4:
		return core.SeverityError
	default:
		return core.SeverityFatal
	}
}

func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, p, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = strconv.Quote(v)
	}
	b.WriteString(v)
}

// Tee returns a handler that passes every record to each of handlers.
func Tee(handlers ...slog.Handler) slog.Handler {
	return teeHandler(handlers)
}

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
