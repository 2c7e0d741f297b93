// Package watch submits result files dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/splits/pkg/logger"
)

// Submitter accepts a file for processing.
type Submitter interface {
	Submit(ctx context.Context, path string) error
}

// Watcher forwards Create and Write events for .csv and .xlsx files.
// Files whose name contains ".filled." are ignored, so output written into
// the watched directory does not loop.
type Watcher struct {
	dir         string
	submitter   Submitter
	initialScan bool
	logger      logger.Logger
	ready       chan struct{}
}

// New creates a watcher for dir.
func New(dir string, s Submitter, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		submitter: s,
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("watch")
	}
	return w
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	close(w.ready)
	w.logger.Info(ctx, "watching directory", logger.String("dir", w.dir))

	if w.initialScan {
		if err := w.scan(ctx); err != nil {
			w.logger.Warn(ctx, "initial scan failed", logger.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.submit(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(ctx, "watcher error", logger.Error(err))
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.submit(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

func (w *Watcher) submit(ctx context.Context, path string) {
	if !Accepts(path) {
		return
	}
	if err := w.submitter.Submit(ctx, path); err != nil {
		w.logger.Warn(ctx, "submit failed", logger.String("path", path), logger.Error(err))
	}
}

// Accepts reports whether path names an input file the watcher handles.
func Accepts(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, ".") || strings.Contains(name, ".filled.") {
		return false
	}
	switch filepath.Ext(name) {
	case ".csv", ".xlsx":
		return true
	default:
		return false
	}
}
