package answer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay is how long Watch waits for writes to settle.
const DefaultWatchDelay = 250 * time.Millisecond

// Watch reloads the catalog at path whenever the file changes, until ctx is
// done. It watches the parent directory so editors that replace the file by
// rename are picked up. Bursts of events within delay trigger one reload.
func (s *Service) Watch(ctx context.Context, path string, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start catalog watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("cannot watch %s: %w", filepath.Dir(abs), err)
	}
	s.logger.Info("watching catalog", "path", abs)

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(delay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", "error", err)
		case <-timer.C:
			if _, err := s.Reload(abs); err != nil {
				s.logger.Error("catalog reload failed, keeping current catalog", "error", err)
			}
		}
	}
}
