package estimator

import (
	"errors"
	"fmt"
)

// Sentinel kinds for estimation errors.
var (
	// ErrDegenerateCohort means the cohort's aggregate total time is zero, so
	// proportions are undefined.
	ErrDegenerateCohort = errors.New("degenerate cohort: aggregate total time is zero")
	// ErrDegenerateRow means a row has missing segments whose combined
	// proportion is zero.
	ErrDegenerateRow = errors.New("degenerate row: missing segments have zero proportion")
	// ErrNegativeUncounted means recorded segments add up to more than the total.
	ErrNegativeUncounted = errors.New("recorded segments exceed total time")
	// ErrColumn means a segment or total column is absent or not a duration.
	ErrColumn = errors.New("column is missing or not a duration")
	// ErrUnknownSegment means a missing segment has no proportion.
	ErrUnknownSegment = errors.New("no proportion for segment")
)

// RowError locates a failure at a zero-based row index within a cohort.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Index, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }
