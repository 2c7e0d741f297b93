package source

import "errors"

var (
	// ErrUnsupportedFormat is returned for inputs other than CSV or XLSX.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrDuplicateColumn is returned when a header names a column twice.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrNoHeader is returned for an input without a header row.
	ErrNoHeader = errors.New("missing header row")
	// ErrRaggedRow is returned when a record is wider than the header.
	ErrRaggedRow = errors.New("row wider than header")
)
