// Package udp carries log lines as single UDP datagrams.
package udp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
)

// Sender broadcasts one datagram per line. It is safe for concurrent use.
type Sender struct {
	// Dest is the destination address. Defaults to the limited broadcast
	// address.
	Dest net.IP

	mu   sync.Mutex
	conn net.PacketConn
	port int
}

// NewSender returns an unbound sender.
func NewSender() *Sender {
	return &Sender{Dest: net.IPv4bcast}
}

// Bind closes any open socket and binds a new one on 0.0.0.0:port with
// address reuse and broadcast enabled. On error the sender is left
// unbound and later sends are dropped.
func (s *Sender) Bind(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.port = 0
	}

	lc := net.ListenConfig{Control: reuseControl(true)}
	conn, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("bind udp port %d: %w", port, err)
	}
	s.conn = conn
	s.port = port
	return nil
}

// Send writes line as a single datagram to Dest on the bound port. A
// sender that is not bound drops the line and returns nil.
func (s *Sender) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	dst := &net.UDPAddr{IP: s.Dest, Port: s.port}
	if _, err := s.conn.WriteTo([]byte(line), dst); err != nil {
		return fmt.Errorf("send to %s: %w", dst, err)
	}
	return nil
}

// Port returns the bound port, or 0 when unbound.
func (s *Sender) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Bound reports whether the sender holds an open socket.
func (s *Sender) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Close releases the socket. The sender can be bound again afterwards.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.port = 0
	return err
}
