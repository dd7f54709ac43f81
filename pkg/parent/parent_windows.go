//go:build windows

package parent

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

type windowsWatcher struct {
	pid    int
	mu     sync.Mutex
	handle windows.Handle
	exited bool
}

// newWatcher opens a handle up front so a reused pid cannot be mistaken
// for the original process.
func newWatcher(pid int, _ bool) (Watcher, error) {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}
	return &windowsWatcher{pid: pid, handle: h}, nil
}

func (w *windowsWatcher) PID() int { return w.pid }

func (w *windowsWatcher) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.exited {
		return false
	}
	// A process handle is signalled once the process has exited.
	ev, err := windows.WaitForSingleObject(w.handle, 0)
	if err != nil || ev != windows.WAIT_OBJECT_0 {
		return true
	}
	w.exited = true
	windows.CloseHandle(w.handle)
	return false
}
