package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/splits/internal/domain/model"
)

// ReadXLSX reads the first sheet of a workbook. The first non-empty row is
// the header. Trailing empty cells are padded and blank rows are skipped.
func ReadXLSX(ctx context.Context, r io.Reader) (model.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Table{}, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return model.Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var (
		t    model.Table
		cols []string
	)
	for i, raw := range rows {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return model.Table{}, err
			}
		}
		if blank(raw) {
			continue
		}
		if cols == nil {
			if cols, err = header(raw); err != nil {
				return model.Table{}, err
			}
			t.Columns = cols
			continue
		}
		fields, err := fit(raw, len(cols))
		if err != nil {
			return model.Table{}, fmt.Errorf("sheet %s row %d: %w", sheets[0], i+1, err)
		}
		t.Rows = append(t.Rows, model.TextRow(cols, fields))
	}
	if cols == nil {
		return model.Table{}, ErrNoHeader
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// fit pads a row to width n. Cells past n are allowed only when empty.
func fit(cells []string, n int) ([]string, error) {
	out := make([]string, n)
	for i, c := range cells {
		if i >= n {
			if c != "" {
				return nil, fmt.Errorf("%w: %d cells for %d columns", ErrRaggedRow, len(cells), n)
			}
			continue
		}
		out[i] = c
	}
	return out, nil
}
