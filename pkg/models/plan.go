package models

// SortDirection orders a plan's result rows.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// OrderBy is one ordering term of a query plan.
type OrderBy struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// QueryPlan is the validated, minimal data-access plan for one KPI.
// SelectedColumns is a superset of the spec's required fields and a subset
// of the dataset schema; the plan never touches a column outside the schema
// and never selects all columns.
type QueryPlan struct {
	KPIID           string    `json:"kpi_id"`
	Table           string    `json:"table"`
	SelectedColumns []string  `json:"selected_columns"`
	GroupBy         []string  `json:"group_by,omitempty"`
	Filters         []Filter  `json:"filters,omitempty"`
	OrderBy         []OrderBy `json:"order_by"`
	Limit           int       `json:"limit,omitempty"`
}

// SelectsColumn reports whether name is among the plan's selected columns.
func (p *QueryPlan) SelectsColumn(name string) bool {
	for _, c := range p.SelectedColumns {
		if c == name {
			return true
		}
	}
	return false
}
