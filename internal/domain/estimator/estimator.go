// Package estimator fills unrecorded segment times from the time distribution
// of the whole cohort.
//
// A segment value of exactly zero means "not recorded". Each row's unaccounted
// time (total minus the recorded segments) is shared among its missing
// segments in proportion to their cohort-wide share of total time, so the
// patched segments add back up to the total, within one second per estimate.
package estimator

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/okian/splits/internal/domain/model"
)

// Proportions maps a segment to its share of aggregate total time. Shares are
// exact ratios so that rounding ties are decided on the true quotient.
// Values must not be modified.
type Proportions map[string]*big.Rat

// Fractions builds Proportions from decimal fractions such as 0.2. Each value
// is taken at its shortest decimal form, so 0.2 is exactly 1/5.
func Fractions(m map[string]float64) Proportions {
	p := make(Proportions, len(m))
	for seg, f := range m {
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
		if !ok {
			r = new(big.Rat).SetFloat64(f)
		}
		p[seg] = r
	}
	return p
}

// Floats returns the shares as float64 for reporting.
func (p Proportions) Floats() map[string]float64 {
	out := make(map[string]float64, len(p))
	for seg, r := range p {
		f, _ := r.Float64()
		out[seg] = f
	}
	return out
}

// ComputeProportions sums every segment and the total over the cohort and
// returns each segment's share. It must be given the raw rows, never rows that
// were already patched.
func ComputeProportions(cohort []model.Row, layout model.Layout) (Proportions, error) {
	sums := make([]int, len(layout.Segments))
	total := 0
	for i, row := range cohort {
		t, err := duration(row, layout.TotalKey)
		if err != nil {
			return nil, &RowError{Index: i, Err: err}
		}
		total += t
		for j, seg := range layout.Segments {
			v, err := duration(row, seg)
			if err != nil {
				return nil, &RowError{Index: i, Err: err}
			}
			sums[j] += v
		}
	}
	if total == 0 {
		return nil, ErrDegenerateCohort
	}
	p := make(Proportions, len(layout.Segments))
	for j, seg := range layout.Segments {
		p[seg] = big.NewRat(int64(sums[j]), int64(total))
	}
	return p, nil
}

// PatchRow returns row with each zero segment replaced by its share of the
// row's unaccounted time. A row with no zero segments is returned unchanged.
func PatchRow(row model.Row, p Proportions, layout model.Layout) (model.Row, error) {
	total, err := duration(row, layout.TotalKey)
	if err != nil {
		return model.Row{}, err
	}
	var missing []string
	counted := 0
	for _, seg := range layout.Segments {
		v, err := duration(row, seg)
		if err != nil {
			return model.Row{}, err
		}
		if v == 0 {
			missing = append(missing, seg)
		}
		counted += v
	}
	if len(missing) == 0 {
		return row, nil
	}

	uncounted := total - counted
	if uncounted < 0 {
		return model.Row{}, fmt.Errorf("%w: total %d, segments %d", ErrNegativeUncounted, total, counted)
	}

	share := new(big.Rat)
	for _, seg := range missing {
		ps, ok := p[seg]
		if !ok || ps == nil {
			return model.Row{}, fmt.Errorf("%w %q", ErrUnknownSegment, seg)
		}
		share.Add(share, ps)
	}
	if share.Sign() == 0 {
		return model.Row{}, fmt.Errorf("%w: %v", ErrDegenerateRow, missing)
	}

	u := new(big.Rat).SetInt64(int64(uncounted))
	updates := make(map[string]model.Value, len(missing))
	for _, seg := range missing {
		q := new(big.Rat).Mul(u, p[seg])
		q.Quo(q, share)
		updates[seg] = model.Seconds(int(roundHalfEven(q)))
	}
	return row.Patch(updates), nil
}

// roundHalfEven rounds a non-negative ratio to the nearest integer, ties to even.
func roundHalfEven(q *big.Rat) int64 {
	quo, rem := new(big.Int).QuoRem(q.Num(), q.Denom(), new(big.Int))
	switch rem.Lsh(rem, 1).Cmp(q.Denom()) {
	case 1:
		quo.Add(quo, big.NewInt(1))
	case 0:
		if quo.Bit(0) == 1 {
			quo.Add(quo, big.NewInt(1))
		}
	}
	return quo.Int64()
}

// Missing returns the segments of row that hold the zero sentinel.
func Missing(row model.Row, layout model.Layout) []string {
	var out []string
	for _, seg := range layout.Segments {
		if v, ok := row.Seconds(seg); ok && v == 0 {
			out = append(out, seg)
		}
	}
	return out
}

func duration(row model.Row, col string) (int, error) {
	v, ok := row.Get(col)
	if !ok {
		return 0, fmt.Errorf("%w: %q absent", ErrColumn, col)
	}
	n, ok := v.Seconds()
	if !ok {
		return 0, fmt.Errorf("%w: %q holds text %q", ErrColumn, col, v.Text())
	}
	return n, nil
}
