package watch

import "github.com/okian/splits/pkg/logger"

// Option applies a configuration option to the Watcher.
type Option func(*Watcher)

// WithLogger sets a custom logger for the watcher.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithInitialScan submits files already present when Run starts.
func WithInitialScan(enabled bool) Option {
	return func(w *Watcher) {
		w.initialScan = enabled
	}
}
