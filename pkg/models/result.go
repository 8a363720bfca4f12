package models

// ResultSlice is the minimal row/column subset retrieved for one KPI.
// It is owned by the pipeline run that produced it and must be treated as
// immutable once returned; an empty slice is a valid result.
type ResultSlice struct {
	KPIID   string           `json:"kpi_id"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RowCount returns the number of retrieved rows.
func (r *ResultSlice) RowCount() int {
	return len(r.Rows)
}

// HasColumn reports whether the slice carries the named column.
func (r *ResultSlice) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnValues returns the values of one column in row order. Missing and
// nil cells are returned as nil entries so indices stay aligned with rows.
func (r *ResultSlice) ColumnValues(name string) []any {
	values := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = row[name]
	}
	return values
}
