package model

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Default column names for a triathlon result sheet.
const DefaultTotalKey = "Gun"

// DefaultSegments returns the triathlon legs in race order.
func DefaultSegments() []string {
	return []string{"Swim", "T1", "Bike", "T2", "Run"}
}

// Layout names the duration columns of a cohort: the ordered segment legs and
// the column holding the overall time.
type Layout struct {
	Segments []string `json:"segments" validate:"required,min=1,unique,dive,required"`
	TotalKey string   `json:"total_key" validate:"required"`
}

// DefaultLayout returns Swim/T1/Bike/T2/Run with Gun as the total.
func DefaultLayout() Layout {
	return Layout{Segments: DefaultSegments(), TotalKey: DefaultTotalKey}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func layoutValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that the layout names at least one unique segment and a
// total column distinct from every segment.
func (l Layout) Validate() error {
	if err := layoutValidator().Struct(l); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if slices.Contains(l.Segments, l.TotalKey) {
		return fmt.Errorf("%w: total key %q is also a segment", ErrInvalidLayout, l.TotalKey)
	}
	return nil
}

// Columns returns the segments followed by the total key.
func (l Layout) Columns() []string {
	cols := make([]string, 0, len(l.Segments)+1)
	cols = append(cols, l.Segments...)
	return append(cols, l.TotalKey)
}

// IsDuration reports whether col is a segment or the total column.
func (l Layout) IsDuration(col string) bool {
	return col == l.TotalKey || slices.Contains(l.Segments, col)
}

// CheckHeader fails when a layout column is missing from columns.
func (l Layout) CheckHeader(columns []string) error {
	for _, col := range l.Columns() {
		if !slices.Contains(columns, col) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}
	return nil
}
