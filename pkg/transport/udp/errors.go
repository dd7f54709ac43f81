package udp

import (
	"errors"
	"net"
	"syscall"
)

var resetErrnos = []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED}

// IsReset reports whether err is the connection-reset condition a UDP
// socket surfaces after an ICMP port-unreachable. Linux reports it as
// ECONNREFUSED, Windows as WSAECONNRESET.
func IsReset(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	for _, e := range resetErrnos {
		if errno == e {
			return true
		}
	}
	return false
}

// IsClosed reports whether err comes from using a socket after Close.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
