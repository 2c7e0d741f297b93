package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/okian/splits/internal/domain/model"
)

const ctxCheckEvery = 1024

// ReadCSV reads a header row followed by records. A leading UTF-8 BOM is
// dropped and records must have exactly as many fields as the header.
func ReadCSV(ctx context.Context, r io.Reader) (model.Table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.Table{}, ErrNoHeader
	}
	if err != nil {
		return model.Table{}, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := header(first)
	if err != nil {
		return model.Table{}, err
	}

	t := model.Table{Columns: cols}
	for i := 0; ; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return model.Table{}, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("read csv record %d: %w", i, err)
		}
		t.Rows = append(t.Rows, model.TextRow(cols, rec))
	}
	return t, nil
}
