// Package watch reports documents that appear in a directory so they can be
// uploaded without going through the picker.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/csheth/docqa/internal/docs"
)

// DefaultQuiet is how long a new file must go without writes before it is
// reported.
const DefaultQuiet = 400 * time.Millisecond

// Watcher emits paths of accepted documents created in or moved into a
// directory once they stop changing. Existing files are not reported.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	quiet   time.Duration
}

// New starts watching dir.
func New(dir string, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", abs)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(abs); err != nil {
		w.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{dir: abs, watcher: w, logger: logger.Named("watch"), quiet: DefaultQuiet}, nil
}

// Dir is the absolute directory being watched.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run forwards accepted paths to emit until ctx is done or the watcher is
// closed. A created file is held back until it has been quiet for the
// watcher's quiet period, so a copy still in progress is not reported half
// written. Each path is reported once per burst of writes.
func (w *Watcher) Run(ctx context.Context, emit func(path string)) error {
	defer w.watcher.Close()

	pending := map[string]time.Time{}
	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	schedule := func() {
		if len(pending) == 0 {
			timer.Stop()
			fire = nil
			return
		}
		var next time.Time
		for _, at := range pending {
			if next.IsZero() || at.Before(next) {
				next = at
			}
		}
		timer.Reset(time.Until(next))
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !candidate(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				pending[event.Name] = time.Now().Add(w.quiet)
			case event.Has(fsnotify.Write):
				if _, ok := pending[event.Name]; !ok {
					continue
				}
				pending[event.Name] = time.Now().Add(w.quiet)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				// The name is gone; a move into the directory arrives as Create.
				delete(pending, event.Name)
			default:
				continue
			}
			schedule()
		case <-fire:
			now := time.Now()
			for path, at := range pending {
				if at.After(now) {
					continue
				}
				delete(pending, path)
				if !regularFile(path) {
					continue
				}
				w.logger.Debug("document appeared", zap.String("path", path))
				emit(path)
			}
			schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close stops the underlying watcher; Run returns afterwards.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func candidate(path string) bool {
	if !docs.Accepted(path) {
		return false
	}
	base := filepath.Base(path)
	return len(base) > 0 && base[0] != '.' && base[0] != '~'
}

func regularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
