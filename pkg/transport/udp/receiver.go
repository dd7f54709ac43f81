package udp

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// MaxDatagram is the largest payload a receiver reads in one call.
const MaxDatagram = 64 * 1024

// Datagram is one received payload and its sender.
type Datagram struct {
	Payload []byte
	From    net.IP
}

// Receiver reads datagrams from a bound UDP socket.
type Receiver struct {
	conn net.PacketConn
	buf  []byte
}

// Listen binds addr with address reuse so the relay and any number of
// viewers can share the port.
func Listen(addr string) (*Receiver, error) {
	lc := net.ListenConfig{Control: reuseControl(false)}
	conn, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Receiver{conn: conn, buf: make([]byte, MaxDatagram)}, nil
}

// ListenPort binds 0.0.0.0:port.
func ListenPort(port int) (*Receiver, error) {
	return Listen(net.JoinHostPort("0.0.0.0", strconv.Itoa(port)))
}

// Receive blocks for the next datagram. The payload is a fresh copy. Not
// safe for concurrent use; there is one reader per socket.
func (r *Receiver) Receive() (Datagram, error) {
	n, addr, err := r.conn.ReadFrom(r.buf)
	if err != nil {
		return Datagram{}, err
	}
	payload := make([]byte, n)
	copy(payload, r.buf[:n])
	d := Datagram{Payload: payload}
	if ua, ok := addr.(*net.UDPAddr); ok {
		d.From = ua.IP
	}
	return d, nil
}

// LocalAddr returns the bound address.
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Close closes the socket. A blocked Receive returns net.ErrClosed.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
