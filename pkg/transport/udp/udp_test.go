package udp

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"
)

func listenLoopback(t *testing.T) (*Receiver, int) {
	t.Helper()
	r, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, r.LocalAddr().(*net.UDPAddr).Port
}

func receiveWithin(t *testing.T, r *Receiver, d time.Duration) Datagram {
	t.Helper()
	r.conn.SetReadDeadline(time.Now().Add(d))
	dg, err := r.Receive()
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	return dg
}

func TestSendReceiveLoopback(t *testing.T) {
	r, port := listenLoopback(t)

	s := NewSender()
	s.Dest = net.IPv4(127, 0, 0, 1)
	if err := s.Bind(port); err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer s.Close()

	lines := []string{
		"14:03:05.123 [INFO] hello",
		"10:00:00.000 [WARN] updated: https://x",
		"12:00:00.000 ünïcødé ✓ 日本語",
	}
	for _, line := range lines {
		if err := s.Send(line); err != nil {
			t.Fatalf("send %q: %v", line, err)
		}
		dg := receiveWithin(t, r, 2*time.Second)
		if !bytes.Equal(dg.Payload, []byte(line)) {
			t.Errorf("payload mismatch: got %q, want %q", dg.Payload, line)
		}
		if !dg.From.IsLoopback() {
			t.Errorf("expected loopback source, got %v", dg.From)
		}
	}
}

func TestBindTwiceKeepsOneSocket(t *testing.T) {
	_, port := listenLoopback(t)

	s := NewSender()
	if err := s.Bind(port); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	first := s.conn
	if err := s.Bind(port); err != nil {
		t.Fatalf("second bind: %v", err)
	}
	defer s.Close()

	if s.conn == first {
		t.Fatal("expected a new socket after rebind")
	}
	_, err := first.WriteTo([]byte("x"), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if !IsClosed(err) {
		t.Errorf("expected previous socket to be closed, got %v", err)
	}
	if s.Port() != port || !s.Bound() {
		t.Errorf("expected bound to %d, got port=%d bound=%v", port, s.Port(), s.Bound())
	}
}

func TestSendUnboundIsDropped(t *testing.T) {
	s := NewSender()
	if err := s.Send("nobody listens"); err != nil {
		t.Errorf("unbound send should be dropped silently, got %v", err)
	}
	if s.Bound() {
		t.Error("new sender should not be bound")
	}
}

func TestBindFailureLeavesUnbound(t *testing.T) {
	s := NewSender()
	if err := s.Bind(-1); err == nil {
		t.Fatal("expected error for invalid port")
	}
	if s.Bound() {
		t.Error("sender should be unbound after failed bind")
	}
	if err := s.Send("dropped"); err != nil {
		t.Errorf("send after failed bind should be dropped, got %v", err)
	}
}

func TestCloseThenRebind(t *testing.T) {
	_, port := listenLoopback(t)
	s := NewSender()
	if err := s.Bind(port); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if s.Bound() {
		t.Error("expected unbound after Close")
	}
	if err := s.Bind(port); err != nil {
		t.Fatalf("rebind after close: %v", err)
	}
	s.Close()
}

func TestReceiveAfterClose(t *testing.T) {
	r, _ := listenLoopback(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := r.Receive()
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	r.Close()

	select {
	case err := <-errCh:
		if !IsClosed(err) {
			t.Errorf("expected closed error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receive did not return after close")
	}
}

func TestIsReset(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", &net.OpError{Op: "read", Net: "udp", Err: os.NewSyscallError("recvfrom", syscall.ECONNREFUSED)}, true},
		{"reset", &net.OpError{Op: "read", Net: "udp", Err: os.NewSyscallError("recvfrom", syscall.ECONNRESET)}, true},
		{"wrapped", fmt.Errorf("receive: %w", syscall.ECONNRESET), true},
		{"other errno", os.NewSyscallError("recvfrom", syscall.EINVAL), false},
		{"closed", net.ErrClosed, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReset(tt.err); got != tt.want {
				t.Errorf("IsReset(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsClosed(t *testing.T) {
	if !IsClosed(&net.OpError{Op: "read", Err: net.ErrClosed}) {
		t.Error("expected wrapped net.ErrClosed to be recognised")
	}
	if IsClosed(errors.New("other")) {
		t.Error("unexpected closed match")
	}
}
