package sink

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/okian/splits/internal/domain/model"
)

// WriteCSV writes the header and one record per row in column order.
func WriteCSV(w io.Writer, t model.Table, r Render) error {
	cols := columns(t)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(cols))
	for i, row := range t.Rows {
		for j, col := range cols {
			rec[j] = cell(valueAt(row, col), r)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
