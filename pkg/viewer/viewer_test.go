package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/modoterra/alog/pkg/transport/udp"
)

type recvResult struct {
	d   udp.Datagram
	err error
}

type fakeSource struct {
	items  chan recvResult
	closed chan struct{}
	once   sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{items: make(chan recvResult, 16), closed: make(chan struct{})}
}

func (f *fakeSource) Receive() (udp.Datagram, error) {
	select {
	case it := <-f.items:
		return it.d, it.err
	case <-f.closed:
		return udp.Datagram{}, fmt.Errorf("read udp: %w", net.ErrClosed)
	}
}

func (f *fakeSource) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeSource) send(msg string, from net.IP) {
	f.items <- recvResult{d: udp.Datagram{Payload: []byte(msg), From: from}}
}

func (f *fakeSource) fail(err error) {
	f.items <- recvResult{err: err}
}

type printed struct {
	text  string
	color Color
}

type recordingPrinter struct {
	mu    sync.Mutex
	lines []printed
}

func (p *recordingPrinter) Print(text string, color Color) {
	p.mu.Lock()
	p.lines = append(p.lines, printed{text, color})
	p.mu.Unlock()
}

func (p *recordingPrinter) snapshot() []printed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]printed(nil), p.lines...)
}

func (p *recordingPrinter) waitFor(t *testing.T, n int) []printed {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		lines := p.snapshot()
		if len(lines) >= n {
			return lines
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d lines, have %v", n, lines)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var localIP = net.IPv4(127, 0, 0, 1)

func onlyLoopback(ip net.IP) bool { return ip.Equal(localIP) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startViewer(t *testing.T, opts Options) (*Viewer, context.CancelFunc, <-chan error) {
	t.Helper()
	if opts.IsLocal == nil {
		opts.IsLocal = onlyLoopback
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 20 * time.Millisecond
	}
	opts.Logger = testLogger()
	v := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	t.Cleanup(cancel)
	return v, cancel, done
}

func TestRunPrintsClassifiedLines(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	v, cancel, done := startViewer(t, Options{Source: src, Printer: p})

	src.send("10:00:00.000 [Error] broke", localIP)
	src.send("  at Foo()", localIP)
	src.send("10:00:01.000 FeatureFlag noise", localIP)
	src.send("10:00:02.000 [Info] ok", localIP)

	lines := p.waitFor(t, 3)
	want := []printed{{"[Error] broke", Red}, {"  at Foo()", Red}, {"[Info] ok", Green}}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %+v, got %+v", i, want[i], lines[i])
		}
	}
	if v.Phase() != PhaseReceiving {
		t.Errorf("expected receiving, got %v", v.Phase())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}
	if v.Phase() != PhaseStopped {
		t.Errorf("expected stopped, got %v", v.Phase())
	}
}

func TestRunFiltersRemoteSenders(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	startViewer(t, Options{Source: src, Printer: p})

	src.send("10:00:00.000 [Info] from afar", net.IPv4(192, 0, 2, 7))
	src.send("10:00:00.000 [Info] from here", localIP)

	lines := p.waitFor(t, 1)
	if len(lines) != 1 || lines[0].text != "[Info] from here" {
		t.Errorf("expected only the local line, got %v", lines)
	}
}

func TestRunAcceptRemote(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	startViewer(t, Options{Source: src, Printer: p, AcceptRemote: true})

	src.send("10:00:00.000 [Info] from afar", net.IPv4(192, 0, 2, 7))
	lines := p.waitFor(t, 1)
	if lines[0].text != "[Info] from afar" {
		t.Errorf("unexpected line %v", lines[0])
	}
}

func TestRunReconnectDeduplicated(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	var phases sync.Map
	startViewer(t, Options{Source: src, Printer: p, OnPhase: func(ph Phase) { phases.Store(ph, true) }})

	reset := &net.OpError{Op: "read", Net: "udp", Err: os.NewSyscallError("recvfrom", syscall.ECONNREFUSED)}
	src.fail(reset)
	src.fail(reset)
	src.fail(reset)
	src.send("10:00:00.000 [Info] back", localIP)
	src.fail(reset)

	lines := p.waitFor(t, 3)
	want := []printed{
		{DisconnectMessage, Red},
		{"[Info] back", Green},
		{DisconnectMessage, Red},
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %+v, got %+v", i, want[i], lines[i])
		}
	}
	if _, ok := phases.Load(PhaseReconnecting); !ok {
		t.Error("expected reconnecting phase")
	}
}

func TestRunOtherErrorsContinue(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	startViewer(t, Options{Source: src, Printer: p})

	src.fail(errors.New("message too long"))
	src.send("10:00:00.000 [Debug] still here", localIP)

	lines := p.waitFor(t, 2)
	if lines[0] != (printed{"Error receiving log entry: message too long", Red}) {
		t.Errorf("unexpected error line %+v", lines[0])
	}
	if lines[1] != (printed{"[Debug] still here", Blue}) {
		t.Errorf("unexpected line %+v", lines[1])
	}
}

func TestRunClosedBeforeStopReturnsError(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	_, _, done := startViewer(t, Options{Source: src, Printer: p})

	src.fail(fmt.Errorf("read udp: %w", net.ErrClosed))

	select {
	case err := <-done:
		if !errors.Is(err, net.ErrClosed) {
			t.Errorf("expected closed error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	if lines := p.snapshot(); len(lines) != 1 || lines[0].color != Red {
		t.Errorf("expected one red error line, got %v", lines)
	}
}

func TestRunStopDuringRetry(t *testing.T) {
	src := newFakeSource()
	p := &recordingPrinter{}
	_, cancel, done := startViewer(t, Options{Source: src, Printer: p, RetryDelay: time.Hour})

	src.fail(&net.OpError{Op: "read", Net: "udp", Err: syscall.ECONNRESET})
	p.waitFor(t, 1)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop during retry wait")
	}
}

func TestRunOverLoopback(t *testing.T) {
	recv, err := udp.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := recv.LocalAddr().(*net.UDPAddr).Port

	p := &recordingPrinter{}
	v := New(Options{Source: recv, Printer: p, Logger: testLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	conn, err := net.Dial("udp4", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("10:00:00.000 [WARN] updated: https://x"))

	lines := p.waitFor(t, 1)
	if lines[0] != (printed{"[WARN] updated: https://x", Yellow}) {
		t.Errorf("unexpected line %+v", lines[0])
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}
}
