// Package watcher re-runs a function whenever a single file changes.
//
// The file's parent directory is watched rather than the file itself, so
// editors and spreadsheet tools that save by writing a new file and
// renaming it over the old one are still observed.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures Watch.
type Options struct {
	// Debounce is how long the file must stay unchanged before fn runs.
	Debounce time.Duration

	Logger *slog.Logger
}

// Watch calls fn once, then again after every burst of changes to path,
// until ctx is done. Errors returned by fn are logged and do not stop the
// watch. Watch returns nil when ctx is canceled.
func Watch(ctx context.Context, path string, opts Options, fn func(context.Context) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("cannot watch %s: parent directory unavailable", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logger = logger.With("file", target)
	run := func() {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run failed", "error", err)
		}
	}

	run()

	timer := time.NewTimer(debounce)
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
			if filepath.Clean(ev.Name) != target || !relevant(ev.Op) {
				continue
			}
			logger.Debug("change detected", "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if _, err := os.Stat(target); err != nil {
				logger.Warn("file unavailable, waiting for it to reappear", "error", err)
				continue
			}
			logger.Info("file changed, re-running")
			run()
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
