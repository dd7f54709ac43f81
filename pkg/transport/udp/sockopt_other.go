//go:build !unix && !windows

package udp

import "syscall"

func reuseControl(bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
