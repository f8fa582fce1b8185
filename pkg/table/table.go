// Package table implements the untyped tabular frame exchanged between the
// store, the column normalizer and the merge engine. Upstream sources ship
// rows with arbitrary column names and loosely typed cells; Table keeps the
// column order (first-match column assignment depends on it) and never
// mutates cells in place; transforms return a fresh Table.
package table

// Row is one record keyed by column name. Cell values are string, float64,
// int or nil; anything else was put there by the caller on purpose.
type Row map[string]any

// Table is an ordered-column collection of rows.
type Table struct {
	cols []string
	rows []Row
}

// New creates an empty table with the given column order.
func New(cols ...string) *Table {
	t := &Table{cols: make([]string, len(cols))}
	copy(t.cols, cols)
	return t
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.cols {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// IsEmpty reports whether t is nil or has no rows.
func (t *Table) IsEmpty() bool { return t == nil || len(t.rows) == 0 }

// Rows returns the backing row slice. Callers must not mutate cells of a
// table they did not build; use Clone first.
func (t *Table) Rows() []Row { return t.rows }

// Append adds a row. Columns not yet known to the table are registered in
// the order they first appear.
func (t *Table) Append(r Row) {
	for k := range r {
		if !t.HasColumn(k) {
			t.cols = append(t.cols, k)
		}
	}
	t.rows = append(t.rows, r)
}

// Clone returns a deep copy of the table (rows copied cell by cell).
func (t *Table) Clone() *Table {
	out := New(t.cols...)
	out.rows = make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.rows = append(out.rows, nr)
	}
	return out
}

// Rename returns a copy of t with columns renamed per mapping. Columns
// absent from the mapping keep their names; row keys are rewritten to match.
func (t *Table) Rename(mapping map[string]string) *Table {
	out := &Table{cols: make([]string, 0, len(t.cols))}
	for _, c := range t.cols {
		if to, ok := mapping[c]; ok {
			out.cols = append(out.cols, to)
		} else {
			out.cols = append(out.cols, c)
		}
	}
	out.rows = make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			if to, ok := mapping[k]; ok {
				nr[to] = v
			} else {
				nr[k] = v
			}
		}
		out.rows = append(out.rows, nr)
	}
	return out
}

// EnsureColumn registers name as a column if it is not one already.
func (t *Table) EnsureColumn(name string) {
	if !t.HasColumn(name) {
		t.cols = append(t.cols, name)
	}
}

// String returns the cell as a string, or "" when absent, nil or non-string.
func (r Row) String(col string) string {
	if s, ok := r[col].(string); ok {
		return s
	}
	return ""
}

// Float returns the cell as a float64. The second result is false when the
// cell is absent, nil, or not numeric.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// FloatOr returns the cell as a float64, or def when missing.
func (r Row) FloatOr(col string, def float64) float64 {
	if v, ok := r.Float(col); ok {
		return v
	}
	return def
}
