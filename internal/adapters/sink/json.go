package sink

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/splits/internal/domain/model"
)

type jsonTable struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// WriteJSON writes {"columns":[...],"rows":[[...],...]}. Seconds are numbers
// unless rendered as clock text.
func WriteJSON(w io.Writer, t model.Table, r Render) error {
	cols := columns(t)
	out := jsonTable{Columns: cols, Rows: make([][]interface{}, 0, len(t.Rows))}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for _, row := range t.Rows {
		rec := make([]interface{}, len(cols))
		for j, col := range cols {
			v := valueAt(row, col)
			if v.IsSeconds() && r == RenderSeconds {
				rec[j] = v
				continue
			}
			rec[j] = cell(v, r)
		}
		out.Rows = append(out.Rows, rec)
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
