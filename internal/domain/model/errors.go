package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidLayout = errors.New("invalid layout")
	ErrMissingColumn = errors.New("missing column")
)
