package sink

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/splits/internal/domain/model"
)

const sheetName = "Sheet1"

// WriteXLSX writes a single-sheet workbook. Seconds are stored as numbers
// unless rendered as clock text.
func WriteXLSX(w io.Writer, t model.Table, r Render) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	cols := columns(t)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(cols))
		for j, col := range cols {
			v := valueAt(row, col)
			if n, ok := v.Seconds(); ok && r == RenderSeconds {
				cells[j] = n
				continue
			}
			cells[j] = cell(v, r)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, addr, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
