package models

// Aggregation is how a KPI condenses its required fields into a value.
type Aggregation string

const (
	AggregationSum    Aggregation = "sum"
	AggregationAvg    Aggregation = "avg"
	AggregationCount  Aggregation = "count"
	AggregationRatio  Aggregation = "ratio"
	AggregationCustom Aggregation = "custom"
)

// ValidAggregation reports whether a is one of the known aggregation kinds.
func ValidAggregation(a Aggregation) bool {
	switch a {
	case AggregationSum, AggregationAvg, AggregationCount, AggregationRatio, AggregationCustom:
		return true
	}
	return false
}

// FilterOp is a comparison operator in a KPI filter predicate.
type FilterOp string

const (
	FilterOpEq  FilterOp = "eq"
	FilterOpNeq FilterOp = "neq"
	FilterOpGt  FilterOp = "gt"
	FilterOpGte FilterOp = "gte"
	FilterOpLt  FilterOp = "lt"
	FilterOpLte FilterOp = "lte"
	FilterOpIn  FilterOp = "in"
)

// ValidFilterOp reports whether op is one of the known filter operators.
func ValidFilterOp(op FilterOp) bool {
	switch op {
	case FilterOpEq, FilterOpNeq, FilterOpGt, FilterOpGte, FilterOpLt, FilterOpLte, FilterOpIn:
		return true
	}
	return false
}

// Filter is a single predicate restricting the rows a KPI considers.
// Value holds a scalar for comparison operators and a []any for in.
type Filter struct {
	Column string   `json:"column"`
	Op     FilterOp `json:"op"`
	Value  any      `json:"value"`
}

// KPISpec is an externally supplied KPI definition. The planner validates
// every spec against the schema before acting on it; specs are never trusted
// as pre-validated, regardless of origin.
type KPISpec struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	RequiredFields []string    `json:"required_fields"`
	Aggregation    Aggregation `json:"aggregation"`
	Filters        []Filter    `json:"filters,omitempty"`

	// CustomExpr is a single SQL aggregate expression used only when
	// Aggregation is custom. It is validated before planning: single
	// expression, no statement separators, referenced columns must exist
	// in the schema.
	CustomExpr string `json:"custom_expr,omitempty"`
}
