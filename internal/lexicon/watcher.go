package lexicon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakturka/invoice-scan/internal/extraction"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a corrections file whenever it changes on disk.
type Watcher struct {
	path     string
	onChange func([]extraction.Correction)
	debounce time.Duration
}

// NewWatcher creates a Watcher that passes every successfully parsed version
// of path to onChange. Broken edits are logged and skipped, so the last good
// table stays in effect.
func NewWatcher(path string, onChange func([]extraction.Correction)) *Watcher {
	return &Watcher{path: path, onChange: onChange, debounce: defaultDebounce}
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file itself because editors replace files by renaming over them.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	slog.Info("Watching corrections file", "path", w.path)

	name := filepath.Base(w.path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Corrections watcher error", "error", err)
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	corrections, err := Load(w.path)
	if err != nil {
		slog.Warn("Ignoring invalid corrections file", "path", w.path, "error", err)
		return
	}
	slog.Info("Reloaded corrections", "path", w.path, "count", len(corrections))
	w.onChange(corrections)
}
