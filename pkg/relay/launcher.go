package relay

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// ViewerBinary is the executable name of the viewer.
const ViewerBinary = "alog-viewer"

const stopTimeout = 5 * time.Second

// ResolveViewer returns the viewer executable to launch. An explicit path
// wins; otherwise the viewer is expected next to the running executable.
func ResolveViewer(explicit string) (string, error) {
	path := explicit
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate executable: %w", err)
		}
		name := ViewerBinary
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		path = filepath.Join(filepath.Dir(exe), name)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("viewer not found: %w", err)
	}
	return path, nil
}

// Launcher owns at most one running viewer process.
type Launcher struct {
	path     string
	terminal []string
	logger   *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// NewLauncher creates a launcher for the viewer at path. terminal, when
// non-empty, is prepended to the command line.
func NewLauncher(path string, terminal []string, logger *slog.Logger) *Launcher {
	return &Launcher{path: path, terminal: terminal, logger: logger}
}

// Restart kills the viewer started earlier, if any, and starts a new one
// listening on port.
func (l *Launcher) Restart(port int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()

	argv := append(append([]string{}, l.terminal...), l.path, strconv.Itoa(port))
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = filepath.Dir(l.path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start viewer %q: %w", l.path, err)
	}

	done := make(chan struct{})
	l.cmd = cmd
	l.done = done
	l.logger.Info("viewer started", "pid", cmd.Process.Pid, "port", port)

	go l.wait(cmd, done)
	return nil
}

// Stop kills the running viewer and waits for it to exit.
func (l *Launcher) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

// PID returns the running viewer's process id, or 0.
func (l *Launcher) PID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cmd == nil || l.cmd.Process == nil {
		return 0
	}
	select {
	case <-l.done:
		return 0
	default:
		return l.cmd.Process.Pid
	}
}

func (l *Launcher) wait(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()
	close(done)

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	l.logger.Info("viewer exited", "pid", cmd.Process.Pid, "exit_code", exitCode, "err", err)
}

func (l *Launcher) stopLocked() {
	if l.cmd == nil {
		return
	}
	cmd, done := l.cmd, l.done
	l.cmd, l.done = nil, nil

	select {
	case <-done:
		return
	default:
	}

	if err := cmd.Process.Kill(); err != nil {
		l.logger.Warn("kill viewer", "pid", cmd.Process.Pid, "err", err)
	}
	select {
	case <-done:
	case <-time.After(stopTimeout):
		l.logger.Warn("viewer did not exit", "pid", cmd.Process.Pid)
	}
}
