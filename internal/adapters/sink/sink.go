// Package sink writes patched tables as CSV, XLSX, Parquet or JSON.
package sink

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/internal/domain/timecodec"
)

// Format names an output encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatParquet, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the media type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Render selects how durations appear in text-like outputs.
type Render string

const (
	// RenderSeconds writes integer seconds.
	RenderSeconds Render = "seconds"
	// RenderClock writes H:MM:SS.
	RenderClock Render = "clock"
)

// ParseRender accepts "seconds" or "clock".
func ParseRender(s string) (Render, error) {
	switch r := Render(strings.ToLower(strings.TrimSpace(s))); r {
	case RenderSeconds, RenderClock:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRender, s)
	}
}

// Option configures Write.
type Option func(*options)

type options struct {
	render Render
}

// WithRender sets the duration render mode. Parquet always stores seconds.
func WithRender(r Render) Option {
	return func(o *options) {
		if r != "" {
			o.render = r
		}
	}
}

// Write encodes t to w.
func Write(w io.Writer, t model.Table, f Format, opts ...Option) error {
	o := options{render: RenderSeconds}
	for _, opt := range opts {
		opt(&o)
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, t, o.render)
	case FormatXLSX:
		return WriteXLSX(w, t, o.render)
	case FormatParquet:
		return WriteParquet(w, t)
	case FormatJSON:
		return WriteJSON(w, t, o.render)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// FilledPath returns the output path for an input file written as f,
// e.g. dir/results.filled.csv.
func FilledPath(dir, input string, f Format) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".filled"+f.Ext())
}

// cell renders one value as text.
func cell(v model.Value, r Render) string {
	if n, ok := v.Seconds(); ok && r == RenderClock {
		return timecodec.Format(n)
	}
	return v.String()
}

// columns returns the table header, falling back to the first row's order.
func columns(t model.Table) []string {
	if len(t.Columns) > 0 || len(t.Rows) == 0 {
		return t.Columns
	}
	return t.Rows[0].Columns()
}

func valueAt(row model.Row, col string) model.Value {
	v, _ := row.Get(col)
	return v
}
