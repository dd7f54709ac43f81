package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// RunCommand runs argv until it exits or ctx is done. Lines written to
// stdout go to the Log hook and lines on stderr to the Error hook.
func (h *Host) RunCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", argv[0], err)
	}

	// Wait must not run before both pipes are drained.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, h.Log)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, h.Error)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

// ReadLines delivers every line of r to the Log hook until r is exhausted
// or ctx is done.
func (h *Host) ReadLines(ctx context.Context, r io.Reader) error {
	scanner := newScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		h.Log(scanner.Text())
	}
	return scanner.Err()
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := newScanner(r)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
