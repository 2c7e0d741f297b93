package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound     = errors.New("report not found")
	ErrDuplicateID  = errors.New("duplicate report id")
	ErrInvalidLimit = errors.New("invalid report limit")
	ErrInvalidID    = errors.New("invalid report id")
)
