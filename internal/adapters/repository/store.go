// Package repository keeps recent estimation reports.
package repository

import (
	"context"

	"github.com/okian/splits/internal/domain/model"
)

// Store provides read/write access to estimation reports.
type Store interface {
	// Put stores a report. Returns ErrDuplicateID if the id is taken.
	Put(ctx context.Context, r model.Report) error

	// Get returns the report with the given id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, id string) (model.Report, error)

	// Recent returns up to n reports, newest first.
	Recent(ctx context.Context, n int) ([]model.Report, error)

	// Count returns the number of reports held.
	Count(ctx context.Context) int
}
