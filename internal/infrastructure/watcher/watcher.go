package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Handler receives a settled file path.
type Handler func(ctx context.Context, path string) error

// DirWatcher reports files created or rewritten in a directory once they
// have been quiet for the debounce interval.
type DirWatcher struct {
	dir        string
	extensions map[string]struct{}
	debounce   time.Duration
}

func New(dir string, extensions []string, debounce time.Duration) *DirWatcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &DirWatcher{dir: dir, extensions: exts, debounce: debounce}
}

// Run blocks until ctx is done. Handler errors are logged and do not stop
// the watcher.
func (w *DirWatcher) Run(ctx context.Context, handle Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.InfoContext(ctx, "watcher_started", "dir", w.dir)

	tick := w.debounce / 4
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.accepts(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "watcher_error", "dir", w.dir, "error", err)
		case now := <-ticker.C:
			for path, changed := range pending {
				if now.Sub(changed) < w.debounce {
					continue
				}
				delete(pending, path)
				if err := handle(ctx, path); err != nil {
					slog.ErrorContext(ctx, "watcher_handler_failed", "path", path, "error", err)
				}
			}
		}
	}
}

func (w *DirWatcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(base))]
	return ok
}
