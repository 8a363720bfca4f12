package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/models"
	"github.com/glint-analytics/glint-engine/pkg/sql"
)

// QueryPlanner turns a validated KPI spec into a minimal data-access plan and
// executes it against the backing store. Specs are re-validated here no matter
// where they came from; LLM-proposed and hand-written specs get the same
// treatment.
type QueryPlanner interface {
	// Plan validates the spec against the schema and builds the minimal plan
	// for it: required fields plus custom-expression and filter columns, never
	// the whole table. It fails with an InvalidSpecError when the spec
	// references unknown columns, pairs an aggregation with incompatible
	// field types, or carries a filter value that fails screening.
	Plan(spec *models.KPISpec, schema *models.Schema) (*models.QueryPlan, error)

	// Execute runs the plan and returns the retrieved slice. Store failures
	// are wrapped in an ExecutionError and never retried here; an empty
	// result is a valid slice, not an error. Re-executing an unchanged plan
	// against an unchanged store returns an identical slice.
	Execute(ctx context.Context, plan *models.QueryPlan) (*models.ResultSlice, error)
}

type queryPlanner struct {
	store  store.Store
	cfg    *config.PipelineConfig
	logger *zap.Logger
}

// NewQueryPlanner creates a QueryPlanner executing against the given store.
func NewQueryPlanner(st store.Store, cfg *config.PipelineConfig, logger *zap.Logger) QueryPlanner {
	return &queryPlanner{
		store:  st,
		cfg:    cfg,
		logger: logger.Named("query-planner"),
	}
}

var _ QueryPlanner = (*queryPlanner)(nil)

func (q *queryPlanner) Plan(spec *models.KPISpec, schema *models.Schema) (*models.QueryPlan, error) {
	if spec == nil {
		return nil, &apperrors.InvalidSpecError{Reason: "nil spec"}
	}
	customRefs, err := q.validate(spec, schema)
	if err != nil {
		return nil, err
	}

	selected := selectColumns(spec, customRefs)
	filters := make([]models.Filter, len(spec.Filters))
	copy(filters, spec.Filters)

	plan := &models.QueryPlan{
		KPIID:           spec.ID,
		Table:           schema.Table,
		SelectedColumns: selected,
		GroupBy:         groupByColumns(spec, schema),
		Filters:         filters,
		OrderBy:         deterministicOrder(selected, schema),
		Limit:           q.cfg.RowLimit,
	}
	q.logger.Debug("planned KPI",
		zap.String("kpi_id", spec.ID),
		zap.Strings("columns", plan.SelectedColumns),
		zap.Strings("group_by", plan.GroupBy),
		zap.Int("filters", len(plan.Filters)))
	return plan, nil
}

func (q *queryPlanner) Execute(ctx context.Context, plan *models.QueryPlan) (*models.ResultSlice, error) {
	result, err := q.store.Query(ctx, &store.QueryRequest{
		Table:   plan.Table,
		Columns: plan.SelectedColumns,
		Filters: plan.Filters,
		OrderBy: plan.OrderBy,
		Limit:   plan.Limit,
	})
	if err != nil {
		return nil, &apperrors.ExecutionError{KPIID: plan.KPIID, Err: err}
	}

	slice := &models.ResultSlice{
		KPIID:   plan.KPIID,
		Columns: result.Columns,
		Rows:    result.Rows,
	}
	q.logger.Debug("executed plan",
		zap.String("kpi_id", plan.KPIID),
		zap.Int("rows", slice.RowCount()))
	return slice, nil
}

// validate rejects the spec before any planning happens. It returns the
// columns referenced by a custom expression so the caller does not have to
// parse the expression twice.
func (q *queryPlanner) validate(spec *models.KPISpec, schema *models.Schema) ([]string, error) {
	if spec.ID == "" {
		return nil, &apperrors.InvalidSpecError{Reason: "spec has no id"}
	}
	if len(spec.RequiredFields) == 0 {
		return nil, &apperrors.InvalidSpecError{KPIID: spec.ID, Reason: "spec names no required fields"}
	}
	if !models.ValidAggregation(spec.Aggregation) {
		return nil, &apperrors.InvalidSpecError{
			KPIID:  spec.ID,
			Reason: fmt.Sprintf("unknown aggregation %q", spec.Aggregation),
		}
	}
	for _, field := range spec.RequiredFields {
		if !schema.HasColumn(field) {
			return nil, &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Field:  field,
				Reason: "column not in dataset schema",
			}
		}
	}

	customRefs, err := q.validateAggregation(spec, schema)
	if err != nil {
		return nil, err
	}
	if err := q.validateFilters(spec, schema); err != nil {
		return nil, err
	}
	return customRefs, nil
}

func (q *queryPlanner) validateAggregation(spec *models.KPISpec, schema *models.Schema) ([]string, error) {
	switch spec.Aggregation {
	case models.AggregationSum, models.AggregationAvg, models.AggregationRatio:
		if !hasMeasureField(spec, schema) {
			return nil, &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Reason: fmt.Sprintf("%s aggregation needs a numeric non-identifier field", spec.Aggregation),
			}
		}
	case models.AggregationCustom:
		normalized, err := sql.ValidateExpression(spec.CustomExpr)
		if err != nil {
			return nil, &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Reason: fmt.Sprintf("custom expression rejected: %v", err),
			}
		}
		refs := sql.ExtractColumnRefs(normalized)
		for _, ref := range refs {
			if !schema.HasColumn(ref) {
				return nil, &apperrors.InvalidSpecError{
					KPIID:  spec.ID,
					Field:  ref,
					Reason: "custom expression references a column not in the schema",
				}
			}
		}
		return refs, nil
	}
	return nil, nil
}

func (q *queryPlanner) validateFilters(spec *models.KPISpec, schema *models.Schema) error {
	for i, f := range spec.Filters {
		if f.Column == "" {
			return &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Reason: fmt.Sprintf("filter %d has no column", i),
			}
		}
		if !schema.HasColumn(f.Column) {
			return &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Field:  f.Column,
				Reason: "filter references a column not in the dataset schema",
			}
		}
		if !models.ValidFilterOp(f.Op) {
			return &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Field:  f.Column,
				Reason: fmt.Sprintf("unknown filter operator %q", f.Op),
			}
		}
		if f.Op == models.FilterOpIn {
			if err := validateInValue(spec.ID, f); err != nil {
				return err
			}
		} else if f.Value == nil {
			return &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Field:  f.Column,
				Reason: "filter value is required",
			}
		}
		if checks := sql.CheckFilterValues(f.Column, f.Value); len(checks) > 0 {
			q.logger.Warn("rejected filter value",
				zap.String("kpi_id", spec.ID),
				zap.String("column", f.Column),
				zap.String("fingerprint", checks[0].Fingerprint))
			return &apperrors.InvalidSpecError{
				KPIID:  spec.ID,
				Field:  f.Column,
				Reason: "filter value failed SQL injection screening",
			}
		}
	}
	return nil
}

func validateInValue(kpiID string, f models.Filter) error {
	switch v := f.Value.(type) {
	case []any:
		if len(v) == 0 {
			return &apperrors.InvalidSpecError{KPIID: kpiID, Field: f.Column, Reason: "in filter needs at least one value"}
		}
	case []string:
		if len(v) == 0 {
			return &apperrors.InvalidSpecError{KPIID: kpiID, Field: f.Column, Reason: "in filter needs at least one value"}
		}
	default:
		return &apperrors.InvalidSpecError{KPIID: kpiID, Field: f.Column, Reason: "in filter value must be a list"}
	}
	return nil
}

// hasMeasureField reports whether at least one required field can serve as
// the measure of a numeric aggregation: numeric type, not an identifier.
// Dimension fields may still appear in the spec; they group the measure.
func hasMeasureField(spec *models.KPISpec, schema *models.Schema) bool {
	for _, field := range spec.RequiredFields {
		col := schema.Column(field)
		if col != nil && col.IsNumeric() && col.Role != models.RoleIdentifier {
			return true
		}
	}
	return false
}

// selectColumns builds the minimal ordered column set: required fields first,
// then custom-expression references, then filter columns, deduplicated.
func selectColumns(spec *models.KPISpec, customRefs []string) []string {
	out := make([]string, 0, len(spec.RequiredFields)+len(customRefs)+len(spec.Filters))
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, f := range spec.RequiredFields {
		add(f)
	}
	for _, ref := range customRefs {
		add(ref)
	}
	for _, f := range spec.Filters {
		add(f.Column)
	}
	return out
}

// groupByColumns returns the dimension-role required fields in spec order.
// Grouping attributes ride along in the plan for downstream chart axes; the
// slice itself stays row-level so the statistics run over raw values.
func groupByColumns(spec *models.KPISpec, schema *models.Schema) []string {
	var out []string
	for _, f := range spec.RequiredFields {
		if col := schema.Column(f); col != nil && col.Role == models.RoleDimension {
			out = append(out, f)
		}
	}
	return out
}

// deterministicOrder gives every plan a total ordering so re-executing an
// unchanged plan returns rows in the same order: datetime columns first, so
// trend input arrives time-sorted, then the remaining selected columns.
func deterministicOrder(selected []string, schema *models.Schema) []models.OrderBy {
	var datetime, rest []models.OrderBy
	for _, name := range selected {
		term := models.OrderBy{Column: name, Direction: models.SortAsc}
		if col := schema.Column(name); col != nil && col.IsDatetime() {
			datetime = append(datetime, term)
			continue
		}
		rest = append(rest, term)
	}
	return append(datetime, rest...)
}
