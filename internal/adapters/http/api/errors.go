package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnprocessable = errors.New("unprocessable cohort")
	ErrNotFound      = errors.New("not found")
)
