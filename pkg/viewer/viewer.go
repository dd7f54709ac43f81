// Package viewer turns received log lines into colored console output.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/modoterra/alog/pkg/transport/udp"
)

// Messages printed by the viewer itself.
const (
	StartedMessage = "LogViewer started. Press Enter to exit..."
	ClearedMessage = "Console cleared! Press Enter to break or Ctrl+L to clear again."
)

// DefaultRetryDelay is the pause after a connection reset.
const DefaultRetryDelay = time.Second

// PacketSource yields datagrams. *udp.Receiver implements it. Close must
// unblock a pending Receive.
type PacketSource interface {
	Receive() (udp.Datagram, error)
	Close() error
}

// Printer writes one colored line. Implementations must be safe for
// concurrent use.
type Printer interface {
	Print(text string, color Color)
}

// Options configures a Viewer.
type Options struct {
	Source       PacketSource
	Printer      Printer
	State        *State // nil: a fresh State over the default tables
	AcceptRemote bool
	IsLocal      func(net.IP) bool // nil: the host's own IPv4 addresses
	RetryDelay   time.Duration     // zero: DefaultRetryDelay
	Logger       *slog.Logger
	OnPhase      func(Phase)
}

// Viewer runs the receive loop.
type Viewer struct {
	source       PacketSource
	printer      Printer
	state        *State
	acceptRemote bool
	isLocal      func(net.IP) bool
	retryDelay   time.Duration
	logger       *slog.Logger
	onPhase      func(Phase)
	phase        atomic.Int32
}

// New creates a viewer in PhaseStarting.
func New(opts Options) *Viewer {
	v := &Viewer{
		source:       opts.Source,
		printer:      opts.Printer,
		state:        opts.State,
		acceptRemote: opts.AcceptRemote,
		isLocal:      opts.IsLocal,
		retryDelay:   opts.RetryDelay,
		logger:       opts.Logger,
		onPhase:      opts.OnPhase,
	}
	if v.state == nil {
		v.state = NewState(nil)
	}
	if v.isLocal == nil {
		v.isLocal = NewLocalAddrs().Contains
	}
	if v.retryDelay <= 0 {
		v.retryDelay = DefaultRetryDelay
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Phase returns the current lifecycle phase.
func (v *Viewer) Phase() Phase {
	return Phase(v.phase.Load())
}

// setPhase moves to p. PhaseStopped is final.
func (v *Viewer) setPhase(p Phase) {
	for {
		cur := Phase(v.phase.Load())
		if cur == p || cur == PhaseStopped {
			return
		}
		if v.phase.CompareAndSwap(int32(cur), int32(p)) {
			break
		}
	}
	v.logger.Debug("viewer phase", "phase", p)
	if v.onPhase != nil {
		v.onPhase(p)
	}
}

// Run receives until ctx is done or the source fails for good. The source
// is closed when ctx is done, which is how a blocked receive is released;
// the resulting error is not reported. Run returns nil on a requested stop.
func (v *Viewer) Run(ctx context.Context) error {
	v.setPhase(PhaseListening)
	defer v.setPhase(PhaseStopped)

	stop := context.AfterFunc(ctx, func() {
		v.setPhase(PhaseStopping)
		v.source.Close()
	})
	defer stop()

	for {
		d, err := v.source.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			switch {
			case udp.IsReset(err):
				v.setPhase(PhaseReconnecting)
				if v.state.NoteDisconnect() {
					v.printer.Print(DisconnectMessage, Red)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(v.retryDelay):
				}
			case udp.IsClosed(err):
				v.printer.Print(fmt.Sprintf("Error receiving log entry: %v", err), Red)
				return fmt.Errorf("receive: %w", err)
			default:
				v.printer.Print(fmt.Sprintf("Error receiving log entry: %v", err), Red)
			}
			continue
		}

		if !v.acceptRemote && !v.isLocal(d.From) {
			v.logger.Debug("dropping remote datagram", "from", d.From)
			continue
		}
		v.setPhase(PhaseReceiving)
		if line, ok := v.state.Process(d.Payload); ok {
			v.printer.Print(line.Text, line.Color)
		}
	}
}
