package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modoterra/alog/pkg/core"
)

// TailPollInterval is how often TailFile checks for new data.
var TailPollInterval = 250 * time.Millisecond

// TailFile follows path from its current end until ctx is done. Each
// complete line becomes an Info event whose source is the file's base
// name. A file that shrinks is read again from the start.
func (h *Host) TailFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek %s: %w", path, err)
	}

	source := filepath.Base(path)
	reader := bufio.NewReader(f)
	ticker := time.NewTicker(TailPollInterval)
	defer ticker.Stop()

	var partial strings.Builder
	for {
		chunk, err := reader.ReadString('\n')
		partial.WriteString(chunk)
		if err == nil {
			line := strings.TrimRight(partial.String(), "\r\n")
			partial.Reset()
			h.Event(core.LogEvent{Text: line, Severity: core.SeverityInfo, Source: source})
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("read %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		info, serr := f.Stat()
		if serr != nil {
			continue
		}
		pos, _ := f.Seek(0, io.SeekCurrent)
		if info.Size() < pos {
			f.Seek(0, io.SeekStart)
			reader.Reset(f)
			partial.Reset()
		}
	}
}
