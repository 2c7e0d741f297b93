package estimator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/splits/internal/domain/model"
)

// Default estimator configuration constants.
const (
	defaultParallelism = 1
	defaultMinChunk    = 1024
)

// Result is the outcome of estimating one cohort.
type Result struct {
	Proportions Proportions
	Rows        []model.Row // patched rows in input order, rejected rows omitted
	Rejected    []RowError  // lenient mode only, in input order
	Patched     int         // rows that received at least one estimate
	Estimated   int         // segment values filled in
}

// Estimator runs the proportions pass and then the patch pass over a cohort.
type Estimator struct {
	layout      model.Layout
	parallelism int
	minChunk    int
	lenient     bool
}

// New creates an Estimator for the given layout.
func New(layout model.Layout, opts ...Option) *Estimator {
	e := &Estimator{
		layout:      layout,
		parallelism: defaultParallelism,
		minChunk:    defaultMinChunk,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout returns the layout the estimator was built for.
func (e *Estimator) Layout() model.Layout { return e.layout }

// Estimate computes proportions over the whole cohort, then patches every row.
// In strict mode the first failing row (lowest index) fails the call; the
// outcome never depends on scheduling. An empty cohort yields an empty result.
func (e *Estimator) Estimate(ctx context.Context, cohort []model.Row) (Result, error) {
	if len(cohort) == 0 {
		return Result{}, nil
	}
	p, err := ComputeProportions(cohort, e.layout)
	if err != nil {
		return Result{}, err
	}

	patched := make([]model.Row, len(cohort))
	failures := make([]error, len(cohort))
	if err := e.patchAll(ctx, cohort, p, patched, failures); err != nil {
		return Result{}, err
	}

	res := Result{Proportions: p, Rows: make([]model.Row, 0, len(cohort))}
	for i := range cohort {
		if failures[i] != nil {
			rerr := RowError{Index: i, Err: failures[i]}
			if !e.lenient {
				return Result{}, &rerr
			}
			res.Rejected = append(res.Rejected, rerr)
			continue
		}
		if n := len(Missing(cohort[i], e.layout)); n > 0 {
			res.Patched++
			res.Estimated += n
		}
		res.Rows = append(res.Rows, patched[i])
	}
	return res, nil
}

// patchAll splits the cohort into contiguous chunks. Each goroutine writes only
// its own index range, so no locking is needed.
func (e *Estimator) patchAll(ctx context.Context, cohort []model.Row, p Proportions, out []model.Row, failures []error) error {
	chunk := (len(cohort) + e.parallelism - 1) / e.parallelism
	if chunk < e.minChunk {
		chunk = e.minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for start := 0; start < len(cohort); start += chunk {
		start := start
		end := min(start+chunk, len(cohort))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("patch rows: %w", err)
				}
				out[i], failures[i] = PatchRow(cohort[i], p, e.layout)
			}
			return nil
		})
	}
	return g.Wait()
}
