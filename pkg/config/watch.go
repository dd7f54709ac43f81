package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the reloaded config whenever the file at path is
// written or created. The parent directory is watched so editors that
// replace the file by renaming a temporary one are still seen. Files
// that fail to load or validate are logged and skipped. Blocks until ctx
// is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload failed", "path", abs, "err", err)
				continue
			}
			if errs := Validate(cfg); len(errs) > 0 {
				for _, e := range errs {
					logger.Warn("config validation", "path", abs, "err", e)
				}
				continue
			}
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "err", err)
		}
	}
}
