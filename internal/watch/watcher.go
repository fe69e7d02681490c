package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/site"
)

// Watcher reports changes below a source root.
type Watcher struct {
	fs     *fsnotify.Watcher
	root   string
	logger *slog.Logger
}

// NewWatcher watches root and every directory below it.
func NewWatcher(root string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{fs: fw, root: root, logger: logger}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }

// Run forwards events to sink until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, sink func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev, sink)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(raw fsnotify.Event, sink func(Event)) {
	if site.Ignored(raw.Name) {
		return
	}
	ev, ok := FromFSNotify(raw)
	if !ok {
		return
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Path), logfields.Op(string(ev.Op)))

	if ev.Op == OpCreate {
		if fi, err := os.Stat(ev.Path); err == nil && fi.IsDir() {
			if err := w.addDirsRecursive(ev.Path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(ev.Path), logfields.Error(err))
			}
			// A directory moved into place brings files that never emit
			// their own create events.
			for _, f := range filesBelow(ev.Path) {
				sink(Event{Op: OpCreate, Path: f})
			}
			return
		}
	}
	sink(ev)
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && site.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Watch add failed", slog.String("dir", path), logfields.Error(err))
		}
		return nil
	})
}

func filesBelow(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && site.Ignored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !site.Ignored(path) {
			files = append(files, path)
		}
		return nil
	})
	return files
}
