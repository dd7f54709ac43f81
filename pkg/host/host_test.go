package host

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modoterra/alog/pkg/core"
)

type recorder struct {
	mu       sync.Mutex
	logs     []string
	warnings []string
	errors   []string
	events   []core.LogEvent
}

func attach(h *Host) *recorder {
	rec := &recorder{}
	h.OnLog(func(m string) { rec.mu.Lock(); rec.logs = append(rec.logs, m); rec.mu.Unlock() })
	h.OnWarning(func(m string) { rec.mu.Lock(); rec.warnings = append(rec.warnings, m); rec.mu.Unlock() })
	h.OnError(func(m string) { rec.mu.Lock(); rec.errors = append(rec.errors, m); rec.mu.Unlock() })
	h.OnLogEvent(func(ev core.LogEvent) { rec.mu.Lock(); rec.events = append(rec.events, ev); rec.mu.Unlock() })
	return rec
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestHostFanOut(t *testing.T) {
	h := New()
	a := attach(h)
	b := attach(h)

	h.Log("one")
	h.Warning("two")
	h.Error("three")
	h.Event(core.LogEvent{Text: "four", Severity: core.SeverityDebug, Source: "s"})

	for i, rec := range []*recorder{a, b} {
		if len(rec.logs) != 1 || len(rec.warnings) != 1 || len(rec.errors) != 1 || len(rec.events) != 1 {
			t.Errorf("subscriber %d: unexpected deliveries %+v", i, rec)
		}
	}
}

func TestHandlerRoutesByLevel(t *testing.T) {
	h := New()
	rec := attach(h)
	logger := slog.New(NewHandler(h, slog.LevelDebug))

	logger.Debug("dbg")
	logger.Info("inf", "port", 9999)
	logger.Warn("careful")
	logger.Error("broken", "err", "disk full")

	if len(rec.logs) != 2 || rec.logs[0] != "dbg" || rec.logs[1] != "inf port=9999" {
		t.Errorf("unexpected logs %q", rec.logs)
	}
	if len(rec.warnings) != 1 || rec.warnings[0] != "careful" {
		t.Errorf("unexpected warnings %q", rec.warnings)
	}
	if len(rec.errors) != 1 || rec.errors[0] != `broken err="disk full"` {
		t.Errorf("unexpected errors %q", rec.errors)
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no events, got %v", rec.events)
	}
}

func TestHandlerSourceBecomesEvent(t *testing.T) {
	h := New()
	rec := attach(h)
	logger := slog.New(NewHandler(h, nil))

	logger.Warn("slow query", "source", "db", "ms", 812)
	logger.With("source", "cache").Error("evicted")

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 events, got %v", rec.events)
	}
	want := []core.LogEvent{
		{Text: "slow query ms=812", Severity: core.SeverityWarning, Source: "db"},
		{Text: "evicted", Severity: core.SeverityError, Source: "cache"},
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], rec.events[i])
		}
	}
	if len(rec.warnings)+len(rec.errors) != 0 {
		t.Error("sourced records must not reach the raw hooks")
	}
}

func TestHandlerLevelAndGroups(t *testing.T) {
	h := New()
	rec := attach(h)
	logger := slog.New(NewHandler(h, slog.LevelWarn))

	logger.Info("filtered")
	logger.WithGroup("req").With("id", 7).Warn("retry", "source", "x", slog.Group("peer", "ip", "10.0.0.1"))

	if len(rec.logs) != 0 {
		t.Errorf("expected info to be filtered, got %q", rec.logs)
	}
	if len(rec.warnings) != 1 {
		t.Fatalf("expected 1 warning, got %q", rec.warnings)
	}
	// source inside a group is an ordinary attribute.
	if got := rec.warnings[0]; got != "retry req.id=7 req.source=x req.peer.ip=10.0.0.1" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  core.Severity
	}{
		{slog.LevelDebug - 4, core.SeverityTrace},
		{slog.LevelDebug, core.SeverityDebug},
		{slog.LevelInfo, core.SeverityInfo},
		{slog.LevelWarn, core.SeverityWarning},
		{slog.LevelError, core.SeverityError},
		{slog.LevelError + 4, core.SeverityFatal},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.level); got != tt.want {
			t.Errorf("SeverityFor(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestTee(t *testing.T) {
	a, b := New(), New()
	ra, rb := attach(a), attach(b)
	logger := slog.New(Tee(NewHandler(a, slog.LevelInfo), NewHandler(b, slog.LevelError)))

	logger.With("k", "v").Info("hello")
	logger.Error("bad")

	if len(ra.logs) != 1 || ra.logs[0] != "hello k=v" || len(ra.errors) != 1 {
		t.Errorf("unexpected first handler deliveries %+v", ra)
	}
	if len(rb.logs) != 0 || len(rb.errors) != 1 {
		t.Errorf("unexpected second handler deliveries %+v", rb)
	}
}

func TestReadLines(t *testing.T) {
	h := New()
	rec := attach(h)
	if err := h.ReadLines(context.Background(), strings.NewReader("a\nb c\n\nlast")); err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"a", "b c", "", "last"}
	if strings.Join(rec.logs, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, rec.logs)
	}
}

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	h := New()
	rec := attach(h)

	err := h.RunCommand(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.logs) != 1 || rec.logs[0] != "out" {
		t.Errorf("unexpected stdout lines %q", rec.logs)
	}
	if len(rec.errors) != 1 || rec.errors[0] != "err" {
		t.Errorf("unexpected stderr lines %q", rec.errors)
	}
}

func TestRunCommandExitError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	if err := New().RunCommand(context.Background(), []string{"sh", "-c", "exit 3"}); err == nil {
		t.Error("expected exit error")
	}
	if err := New().RunCommand(context.Background(), nil); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestTailFile(t *testing.T) {
	old := TailPollInterval
	TailPollInterval = 10 * time.Millisecond
	defer func() { TailPollInterval = old }()

	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("before start\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := New()
	rec := attach(h)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.TailFile(ctx, path) }()
	time.Sleep(50 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("first\r\nsec")
	time.Sleep(30 * time.Millisecond)
	f.WriteString("ond\n")
	f.Close()

	waitFor(t, func() bool { return rec.eventCount() >= 2 })

	// Truncate and write again: tailing restarts at the top.
	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return rec.eventCount() >= 3 })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("tail returned %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []string{"first", "second", "new"}
	for i, w := range want {
		ev := rec.events[i]
		if ev.Text != w || ev.Source != "app.log" || ev.Severity != core.SeverityInfo {
			t.Errorf("event %d: unexpected %+v", i, ev)
		}
	}
}

func TestTailFileMissing(t *testing.T) {
	if err := New().TailFile(context.Background(), filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseJournalEntry(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		want core.LogEvent
	}{
		{"text", `{"MESSAGE":"started","PRIORITY":"6"}`, true, core.LogEvent{Text: "started", Severity: core.SeverityInfo, Source: "u"}},
		{"error", `{"MESSAGE":"boom","PRIORITY":"3"}`, true, core.LogEvent{Text: "boom", Severity: core.SeverityError, Source: "u"}},
		{"crit", `{"MESSAGE":"down","PRIORITY":"2"}`, true, core.LogEvent{Text: "down", Severity: core.SeverityFatal, Source: "u"}},
		{"bytes", `{"MESSAGE":[104,105],"PRIORITY":"4"}`, true, core.LogEvent{Text: "hi", Severity: core.SeverityWarning, Source: "u"}},
		{"no priority", `{"MESSAGE":"x"}`, true, core.LogEvent{Text: "x", Severity: core.SeverityInfo, Source: "u"}},
		{"no message", `{"PRIORITY":"6"}`, false, core.LogEvent{}},
		{"garbage", `not json`, false, core.LogEvent{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseJournalEntry([]byte(tt.line), "u")
			if ok != tt.ok || got != tt.want {
				t.Errorf("got (%+v, %v), want (%+v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
