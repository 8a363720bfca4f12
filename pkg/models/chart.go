package models

// ChartType is one of the renderable chart kinds a recommendation may name.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartScatter ChartType = "scatter"
	ChartPie     ChartType = "pie"
	ChartTable   ChartType = "table"
)

// ValidChartType reports whether t is a known chart kind.
func ValidChartType(t ChartType) bool {
	switch t {
	case ChartBar, ChartLine, ChartScatter, ChartPie, ChartTable:
		return true
	}
	return false
}

// ChartSpec is a rendering suggestion for one KPI's result slice. Axes always
// reference columns present in the slice; recommendations that fail that
// check are replaced by a deterministic fallback before they reach a caller.
type ChartSpec struct {
	Type  ChartType `json:"chart_type"`
	XAxis string    `json:"x_axis,omitempty"`
	YAxis string    `json:"y_axis,omitempty"`
	Title string    `json:"title"`
	Color string    `json:"color,omitempty"`
}
