package model

import "slices"

// Row maps column names to values and remembers column order.
// Rows are treated as immutable: With and Patch return new rows.
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow builds a row from parallel column and value slices. Extra values
// beyond len(columns) are ignored; missing ones become empty text.
func NewRow(columns []string, values []Value) Row {
	r := Row{
		columns: columns,
		values:  make(map[string]Value, len(columns)),
	}
	for i, col := range columns {
		if i < len(values) {
			r.values[col] = values[i]
		} else {
			r.values[col] = Text("")
		}
	}
	return r
}

// TextRow builds a row whose values are all opaque text.
func TextRow(columns []string, fields []string) Row {
	values := make([]Value, len(fields))
	for i, f := range fields {
		values[i] = Text(f)
	}
	return NewRow(columns, values)
}

// Columns returns the column order. Callers must not modify it.
func (r Row) Columns() []string { return r.columns }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Get returns the value stored under col.
func (r Row) Get(col string) (Value, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Seconds returns the duration stored under col, if col holds one.
func (r Row) Seconds(col string) (int, bool) {
	v, ok := r.values[col]
	if !ok {
		return 0, false
	}
	return v.Seconds()
}

// Values returns the values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.columns))
	for i, col := range r.columns {
		out[i] = r.values[col]
	}
	return out
}

// With returns a copy of r with col set to v. Unknown columns are appended.
func (r Row) With(col string, v Value) Row {
	return r.Patch(map[string]Value{col: v})
}

// Patch returns a copy of r with every entry of updates applied. Columns not
// yet present are appended in lexical order.
func (r Row) Patch(updates map[string]Value) Row {
	out := Row{
		columns: r.columns,
		values:  make(map[string]Value, len(r.values)+len(updates)),
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	var added []string
	for k, v := range updates {
		if _, ok := out.values[k]; !ok {
			added = append(added, k)
		}
		out.values[k] = v
	}
	if len(added) > 0 {
		slices.Sort(added)
		cols := make([]string, 0, len(r.columns)+len(added))
		cols = append(cols, r.columns...)
		cols = append(cols, added...)
		out.columns = cols
	}
	return out
}

// Equal reports whether both rows have the same columns, order and values.
func (r Row) Equal(o Row) bool {
	if len(r.columns) != len(o.columns) {
		return false
	}
	for i, col := range r.columns {
		if o.columns[i] != col {
			return false
		}
		if r.values[col] != o.values[col] {
			return false
		}
	}
	return true
}

// Table is a header plus its rows.
type Table struct {
	Columns []string
	Rows    []Row
}
