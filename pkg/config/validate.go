package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// ValidPort reports whether p is a port the relay and viewer accept.
func ValidPort(p int) bool {
	return p >= MinPort && p <= MaxPort
}

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if !ValidPort(c.Port) {
		errs = append(errs, fmt.Errorf("port must be between %d and %d, got %d", MinPort, MaxPort, c.Port))
	}

	switch c.EchoSink {
	case EchoSlog, EchoJournal:
	default:
		errs = append(errs, fmt.Errorf("echo_sink must be %s or %s, got %q", EchoSlog, EchoJournal, c.EchoSink))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	for i, s := range c.Sources {
		switch s.Kind {
		case SourceFile:
			if s.Path == "" {
				errs = append(errs, fmt.Errorf("source %d (file): path is required", i))
			}
		case SourceJournal:
			if s.Unit == "" {
				errs = append(errs, fmt.Errorf("source %d (journal): unit is required", i))
			}
		case "":
			errs = append(errs, fmt.Errorf("source %d: kind is required", i))
		default:
			errs = append(errs, fmt.Errorf("source %d: unknown kind %q", i, s.Kind))
		}
	}

	return errs
}

// ParseLevel converts a config log level to an slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q (must be debug, info, warn, or error)", level)
	}
}

// Sanitize replaces invalid settings with their defaults and drops
// unusable sources. It returns what it fixed.
func Sanitize(c *Config) []error {
	var fixed []error
	d := Default()

	if !ValidPort(c.Port) {
		fixed = append(fixed, fmt.Errorf("port %d out of range, using %d", c.Port, d.Port))
		c.Port = d.Port
	}
	if c.EchoSink != EchoSlog && c.EchoSink != EchoJournal {
		fixed = append(fixed, fmt.Errorf("echo_sink %q unknown, using %s", c.EchoSink, d.EchoSink))
		c.EchoSink = d.EchoSink
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		fixed = append(fixed, fmt.Errorf("%w, using %s", err, d.LogLevel))
		c.LogLevel = d.LogLevel
	}

	sources := c.Sources[:0]
	for i, s := range c.Sources {
		ok := (s.Kind == SourceFile && s.Path != "") || (s.Kind == SourceJournal && s.Unit != "")
		if !ok {
			fixed = append(fixed, fmt.Errorf("source %d (%s) is incomplete, skipping", i, s.Kind))
			continue
		}
		sources = append(sources, s)
	}
	c.Sources = sources

	return fixed
}
