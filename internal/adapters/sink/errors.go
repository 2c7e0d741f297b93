package sink

import "errors"

var (
	// ErrUnsupportedFormat is returned for unknown output formats.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrUnsupportedRender is returned for unknown render modes.
	ErrUnsupportedRender = errors.New("unsupported render mode")
)
