package store

import (
	"fmt"
	"strings"

	"github.com/glint-analytics/glint-engine/pkg/models"
)

// Dialect captures the per-backend SQL differences the builder needs:
// identifier quoting, parameter placeholder syntax, and whether row caps
// use TOP(n) after SELECT or a trailing LIMIT.
type Dialect struct {
	QuoteIdent  func(name string) string
	Placeholder func(n int) string // 1-based parameter index
	UseTop      bool
}

// BuildSelect renders a QueryRequest into a single SELECT statement with
// bound parameter values. Filter values are never interpolated into the
// SQL text.
func BuildSelect(req *QueryRequest, d Dialect) (string, []any, error) {
	if req == nil {
		return "", nil, fmt.Errorf("nil query request")
	}
	if req.Table == "" {
		return "", nil, fmt.Errorf("query request has no table")
	}
	if len(req.Columns) == 0 {
		return "", nil, fmt.Errorf("query request selects no columns")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")

	if d.UseTop && req.Limit > 0 {
		fmt.Fprintf(&sb, "TOP(%d) ", req.Limit)
	}

	for i, col := range req.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdent(col))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteIdent(req.Table))

	args, err := writeWhere(&sb, req.Filters, d)
	if err != nil {
		return "", nil, err
	}

	if len(req.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, ob := range req.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.QuoteIdent(ob.Column))
			if ob.Direction == models.SortDesc {
				sb.WriteString(" DESC")
			} else {
				sb.WriteString(" ASC")
			}
		}
	}

	if !d.UseTop && req.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", req.Limit)
	}

	return sb.String(), args, nil
}

// writeWhere appends a WHERE clause for the filters and returns the bound
// parameter values in placeholder order.
func writeWhere(sb *strings.Builder, filters []models.Filter, d Dialect) ([]any, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(filters))
	sb.WriteString(" WHERE ")

	for i, f := range filters {
		if i > 0 {
			sb.WriteString(" AND ")
		}

		op, ok := comparisonSQL[f.Op]
		if ok {
			sb.WriteString(d.QuoteIdent(f.Column))
			sb.WriteString(" ")
			sb.WriteString(op)
			sb.WriteString(" ")
			sb.WriteString(d.Placeholder(len(args) + 1))
			args = append(args, f.Value)
			continue
		}

		if f.Op != models.FilterOpIn {
			return nil, fmt.Errorf("unsupported filter op %q on column %q", f.Op, f.Column)
		}

		values, err := inValues(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter on column %q: %w", f.Column, err)
		}

		sb.WriteString(d.QuoteIdent(f.Column))
		sb.WriteString(" IN (")
		for j, v := range values {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(len(args) + 1))
			args = append(args, v)
		}
		sb.WriteString(")")
	}

	return args, nil
}

// comparisonSQL maps scalar filter operators to their SQL form.
var comparisonSQL = map[models.FilterOp]string{
	models.FilterOpEq:  "=",
	models.FilterOpNeq: "<>",
	models.FilterOpGt:  ">",
	models.FilterOpGte: ">=",
	models.FilterOpLt:  "<",
	models.FilterOpLte: "<=",
}

// inValues normalizes the value of an "in" filter to a non-empty slice.
func inValues(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("in filter has no values")
		}
		return v, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("in filter has no values")
		}
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("in filter has no values")
	default:
		// Single scalar is tolerated as a one-element list.
		return []any{value}, nil
	}
}
