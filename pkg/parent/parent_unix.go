//go:build unix

package parent

import (
	"os"

	"golang.org/x/sys/unix"
)

type unixWatcher struct {
	pid       int
	checkPPID bool
}

func newWatcher(pid int, checkPPID bool) (Watcher, error) {
	return &unixWatcher{pid: pid, checkPPID: checkPPID}, nil
}

func (w *unixWatcher) PID() int { return w.pid }

// Alive probes with signal 0. EPERM still proves the process exists. When
// watching our own parent, being reparented means it exited even if the
// pid has been reused.
func (w *unixWatcher) Alive() bool {
	if w.checkPPID && os.Getppid() != w.pid {
		return false
	}
	err := unix.Kill(w.pid, 0)
	if err != nil && err != unix.EPERM {
		return false
	}
	return !exited(w.pid)
}
