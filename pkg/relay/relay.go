// Package relay broadcasts host log events as timestamped UDP lines.
package relay

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"

	"github.com/modoterra/alog/pkg/config"
	"github.com/modoterra/alog/pkg/core"
)

// SourceName tags the relay's own log output. Events from this source are
// never broadcast.
const SourceName = "alog-relay"

// DefaultDebounce is how long a port change must stay stable before the
// relay rebinds.
const DefaultDebounce = 3 * time.Second

// Transport sends wire lines. *udp.Sender implements it.
type Transport interface {
	Bind(port int) error
	Send(line string) error
	Close() error
}

// ViewerLauncher restarts the viewer process on a port. *Launcher
// implements it.
type ViewerLauncher interface {
	Restart(port int) error
	Stop()
	PID() int
}

// Options configures a Relay.
type Options struct {
	Transport    Transport
	Logger       *slog.Logger
	Echo         EchoSink           // nil: SlogEcho over Logger
	LogToConsole bool
	Launcher     ViewerLauncher     // nil: no viewer is managed
	Debounce     time.Duration      // zero: DefaultDebounce
	Now          func() time.Time
	Notify       func(state string) // nil: sd_notify
}

// Stats counts what happened to relayed lines.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

// Relay owns the transport, the echo toggle and the pending rebind.
type Relay struct {
	transport Transport
	logger    *slog.Logger
	echo      EchoSink
	launcher  ViewerLauncher
	debounce  *Debouncer
	now       func() time.Time
	notify    func(string)

	// bindMu serialises rebinds so Port and Bound agree with the socket.
	bindMu sync.Mutex
	closed bool // guarded by bindMu
	port   atomic.Int64
	bound  atomic.Bool

	logToConsole atomic.Bool
	sent         atomic.Uint64
	dropped      atomic.Uint64
	failed       atomic.Uint64
}

// New creates a relay. Nothing is bound until Start.
func New(opts Options) *Relay {
	r := &Relay{
		transport: opts.Transport,
		logger:    opts.Logger,
		echo:      opts.Echo,
		launcher:  opts.Launcher,
		now:       opts.Now,
		notify:    opts.Notify,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.echo == nil {
		r.echo = SlogEcho{Logger: r.logger}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.notify == nil {
		r.notify = sdNotify
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	r.debounce = NewDebouncer(delay)
	r.logToConsole.Store(opts.LogToConsole)
	return r
}

// Start launches the viewer and binds the transport to port.
func (r *Relay) Start(port int) {
	r.rebind(port)
	r.notify(sddaemon.SdNotifyReady)
}

// Attach subscribes the relay to every hook point of h.
func (r *Relay) Attach(h core.Hooks) {
	h.OnLog(r.Log)
	h.OnWarning(r.Warning)
	h.OnError(r.Error)
	h.OnLogEvent(r.LogEvent)
}

// Log relays a message from the informational hook at message severity.
func (r *Relay) Log(msg string) { r.raw(core.SeverityMessage, msg) }

// Warning relays a message from the warning hook.
func (r *Relay) Warning(msg string) { r.raw(core.SeverityWarning, msg) }

// Error relays a message from the error hook.
func (r *Relay) Error(msg string) { r.raw(core.SeverityError, msg) }

// LogEvent relays an event from the generic listener as
// "[SEVERITY][source] text". The relay's own events are skipped.
func (r *Relay) LogEvent(ev core.LogEvent) {
	if ev.Source == SourceName {
		return
	}
	r.send(FormatLine(r.now(), FormatEvent(ev)))
}

func (r *Relay) raw(sev core.Severity, msg string) {
	if r.logToConsole.Load() {
		r.echo.Echo(sev, msg)
	}
	r.send(FormatLine(r.now(), msg))
}

func (r *Relay) send(line string) {
	if !r.bound.Load() {
		r.dropped.Add(1)
		return
	}
	if err := r.transport.Send(line); err != nil {
		r.failed.Add(1)
		r.logger.Error("send log line", "port", r.Port(), "err", err)
		return
	}
	r.sent.Add(1)
}

// Reconfigure schedules a rebind to port once the value has been stable
// for the debounce delay. Each call replaces the pending one.
func (r *Relay) Reconfigure(port int) {
	if !config.ValidPort(port) {
		r.logger.Warn("ignoring invalid port", "port", port)
		return
	}
	r.logger.Info("port change scheduled", "port", port)
	r.debounce.Trigger(func() {
		r.notify(sddaemon.SdNotifyReloading)
		if r.rebind(port) {
			r.notify(sddaemon.SdNotifyReady)
		}
	})
}

// ReconfigurePending reports whether a rebind is waiting for its delay.
func (r *Relay) ReconfigurePending() bool {
	return r.debounce.Pending()
}

// rebind restarts the viewer and rebinds the transport. It does nothing
// and returns false once the relay is closed.
func (r *Relay) rebind(port int) bool {
	r.bindMu.Lock()
	defer r.bindMu.Unlock()
	if r.closed {
		return false
	}

	if r.launcher != nil {
		if err := r.launcher.Restart(port); err != nil {
			r.logger.Error("launch viewer", "port", port, "err", err)
		}
	}

	r.port.Store(int64(port))
	if err := r.transport.Bind(port); err != nil {
		r.bound.Store(false)
		r.logger.Error("bind UDP client", "port", port, "err", err)
		return true
	}
	r.bound.Store(true)
	r.logger.Info("UDP client started", "port", port)
	return true
}

// SetLogToConsole flips local echo of raw hook messages.
func (r *Relay) SetLogToConsole(on bool) { r.logToConsole.Store(on) }

// LogToConsole reports the echo toggle.
func (r *Relay) LogToConsole() bool { return r.logToConsole.Load() }

// Port returns the port of the last bind attempt.
func (r *Relay) Port() int { return int(r.port.Load()) }

// Bound reports whether the transport is ready to send.
func (r *Relay) Bound() bool { return r.bound.Load() }

// ViewerPID returns the managed viewer's pid, or 0.
func (r *Relay) ViewerPID() int {
	if r.launcher == nil {
		return 0
	}
	return r.launcher.PID()
}

// Stats returns the line counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Sent:    r.sent.Load(),
		Dropped: r.dropped.Load(),
		Failed:  r.failed.Load(),
	}
}

// Close cancels any pending rebind, stops the viewer and closes the
// transport.
func (r *Relay) Close() error {
	r.notify(sddaemon.SdNotifyStopping)
	r.debounce.Stop()

	r.bindMu.Lock()
	defer r.bindMu.Unlock()
	r.closed = true
	if r.launcher != nil {
		r.launcher.Stop()
	}
	r.bound.Store(false)
	return r.transport.Close()
}

func sdNotify(state string) {
	// Outside systemd NOTIFY_SOCKET is unset and this is a no-op.
	sddaemon.SdNotify(false, state)
}
