// Package parent watches whether the process that started us is still
// running.
package parent

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
)

var (
	// ErrNoParent means there is no parent worth watching: we were
	// started by init or have already been reparented.
	ErrNoParent = errors.New("no parent process")

	// ErrUnsupported means the platform has no way to probe a process.
	ErrUnsupported = errors.New("parent watching not supported on this platform")
)

// DefaultInterval is how often Loop polls.
const DefaultInterval = time.Second

// Watcher reports whether a watched process is alive.
type Watcher interface {
	Alive() bool
	PID() int
}

// New watches the current parent process.
func New() (Watcher, error) {
	pid := os.Getppid()
	if pid <= 1 {
		return nil, ErrNoParent
	}
	return newWatcher(pid, true)
}

// ForPID watches an arbitrary process.
func ForPID(pid int) (Watcher, error) {
	if pid <= 0 {
		return nil, ErrNoParent
	}
	return newWatcher(pid, false)
}

// Loop polls a Watcher until the process goes away.
type Loop struct {
	watcher  Watcher
	interval time.Duration
	logger   *slog.Logger
}

// NewLoop creates a loop polling w every interval.
func NewLoop(w Watcher, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{watcher: w, interval: interval, logger: logger}
}

// Run blocks until ctx is done or the process is gone. It reports whether
// the process exited.
func (l *Loop) Run(ctx context.Context) bool {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if !l.watcher.Alive() {
				l.logger.Info("parent process exited", "pid", l.watcher.PID())
				return true
			}
		}
	}
}
