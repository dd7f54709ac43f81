// Package host is a minimal log host: it owns the hook registries the
// relay subscribes to and feeds them from slog, child processes, stdin,
// files and the systemd journal.
package host

import (
	"sync"

	"github.com/modoterra/alog/pkg/core"
)

// Host implements core.Hooks with fan-out registries.
type Host struct {
	mu       sync.RWMutex
	logs     []core.MessageHandler
	warnings []core.MessageHandler
	errors   []core.MessageHandler
	events   []core.EventHandler
}

// New creates a host with no subscribers.
func New() *Host {
	return &Host{}
}

func (h *Host) OnLog(fn core.MessageHandler) {
	h.mu.Lock()
	h.logs = append(h.logs, fn)
	h.mu.Unlock()
}

func (h *Host) OnWarning(fn core.MessageHandler) {
	h.mu.Lock()
	h.warnings = append(h.warnings, fn)
	h.mu.Unlock()
}

func (h *Host) OnError(fn core.MessageHandler) {
	h.mu.Lock()
	h.errors = append(h.errors, fn)
	h.mu.Unlock()
}

func (h *Host) OnLogEvent(fn core.EventHandler) {
	h.mu.Lock()
	h.events = append(h.events, fn)
	h.mu.Unlock()
}

// Log delivers msg to every informational subscriber.
func (h *Host) Log(msg string) { h.emit(&h.logs, msg) }

// Warning delivers msg to every warning subscriber.
func (h *Host) Warning(msg string) { h.emit(&h.warnings, msg) }

// Error delivers msg to every error subscriber.
func (h *Host) Error(msg string) { h.emit(&h.errors, msg) }

// Event delivers ev to every listener.
func (h *Host) Event(ev core.LogEvent) {
	h.mu.RLock()
	subs := h.events
	h.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (h *Host) emit(list *[]core.MessageHandler, msg string) {
	h.mu.RLock()
	subs := *list
	h.mu.RUnlock()
	for _, fn := range subs {
		fn(msg)
	}
}
