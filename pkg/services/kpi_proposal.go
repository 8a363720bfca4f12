package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/jsonutil"
	"github.com/glint-analytics/glint-engine/pkg/llm"
	"github.com/glint-analytics/glint-engine/pkg/models"
)

// KPIProposalService turns a business question into executable KPI specs
// grounded in the dataset schema. Generated proposals are never trusted
// as-is: every spec is re-validated against the schema, unknown columns are
// stripped, and proposals left with no usable fields are dropped.
type KPIProposalService interface {
	// Propose suggests up to n KPI specs for the question. With no LLM client
	// configured it falls back to deterministic schema-derived proposals.
	Propose(ctx context.Context, question string, schema *models.Schema, n int) ([]models.KPISpec, error)
}

type kpiProposalService struct {
	client llm.LLMClient
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewKPIProposalService creates a KPI proposal service. client may be nil,
// in which case proposals are derived from column roles without an LLM.
func NewKPIProposalService(client llm.LLMClient, cfg *config.AIConfig, logger *zap.Logger) KPIProposalService {
	return &kpiProposalService{
		client: client,
		cfg:    cfg,
		logger: logger.Named("kpi-proposal"),
	}
}

var _ KPIProposalService = (*kpiProposalService)(nil)

const proposalSystemMessage = `You are an expert analytics assistant. You suggest KPIs that are aligned with business goals, measurable with the available data, actionable, and clearly defined. Respond with JSON only.`

// kpiProposal is one entry in the LLM response array. Fields tolerates both
// a JSON array and a comma-separated string.
type kpiProposal struct {
	KPI         string                      `json:"KPI"`
	Description string                      `json:"Description"`
	Fields      jsonutil.FlexibleStringList `json:"Fields"`
}

func (s *kpiProposalService) Propose(ctx context.Context, question string, schema *models.Schema, n int) ([]models.KPISpec, error) {
	if schema == nil || len(schema.Columns) == 0 {
		return nil, &apperrors.SchemaError{Err: apperrors.ErrNoColumns}
	}
	if n <= 0 {
		n = s.cfg.ProposalCount
	}

	if s.client == nil {
		specs := s.fallbackProposals(schema, n)
		s.logger.Info("proposed KPIs without LLM", zap.Int("count", len(specs)))
		return specs, nil
	}

	content, err := generateWithRetry(ctx, s.client, s.cfg, s.logger, s.buildPrompt(question, schema, n), proposalSystemMessage)
	if err != nil {
		return nil, err
	}

	proposals, err := llm.ParseJSONResponse[[]kpiProposal](content)
	if err != nil {
		return nil, fmt.Errorf("parse KPI proposals: %w", err)
	}

	specs := s.buildSpecs(proposals, schema, n)
	if len(specs) == 0 {
		return nil, apperrors.ErrNoValidKPIProposed
	}

	s.logger.Info("proposed KPIs",
		zap.Int("suggested", len(proposals)),
		zap.Int("accepted", len(specs)))
	return specs, nil
}

func (s *kpiProposalService) buildPrompt(question string, schema *models.Schema, n int) string {
	var sb strings.Builder

	sb.WriteString("Given the dataset schema below:\n\n")
	writeRoleSection(&sb, "Identifier", schema.IdentifierColumns())
	writeRoleSection(&sb, "Metric", schema.MetricColumns())
	writeRoleSection(&sb, "Dimension", schema.DimensionColumns())

	sb.WriteString("\nAnd the user question:\n\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", question))

	sb.WriteString(fmt.Sprintf("Suggest up to %d KPIs that address the user's business goals.\n", n))
	sb.WriteString("For each KPI provide the following keys in a JSON array:\n")
	sb.WriteString("- \"KPI\": the KPI name as a string\n")
	sb.WriteString("- \"Description\": a brief explanation or formula of the KPI\n")
	sb.WriteString("- \"Fields\": a list of the schema fields used to compute this KPI\n\n")
	sb.WriteString("Example response:\n\n")
	sb.WriteString("[\n")
	sb.WriteString("  {\"KPI\": \"Total Sales\", \"Description\": \"Sum of sales amount over the period\", \"Fields\": [\"sales_amount\"]},\n")
	sb.WriteString("  {\"KPI\": \"Customer Count\", \"Description\": \"Number of unique customers\", \"Fields\": [\"customer_id\"]}\n")
	sb.WriteString("]\n\n")
	sb.WriteString("Your response must be ONLY a valid JSON array matching the example format.\n")

	return sb.String()
}

// writeRoleSection lists the columns of one role with their inferred type and
// a few sample values so the model grounds proposals in real column names.
func writeRoleSection(sb *strings.Builder, role string, cols []models.ColumnMetadata) {
	if len(cols) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s fields:\n", role))
	for _, col := range cols {
		sb.WriteString(fmt.Sprintf(" - %s (%s", col.Name, col.InferredType))
		if len(col.SampleValues) > 0 {
			sb.WriteString(fmt.Sprintf(", e.g. %s", strings.Join(col.SampleValues, ", ")))
		}
		sb.WriteString(")\n")
	}
}

// buildSpecs converts raw proposals into validated KPI specs. Duplicate names
// are collapsed, unknown columns stripped, and the result capped at n.
func (s *kpiProposalService) buildSpecs(proposals []kpiProposal, schema *models.Schema, n int) []models.KPISpec {
	specs := make([]models.KPISpec, 0, len(proposals))
	seen := make(map[string]bool)
	for _, p := range proposals {
		name := strings.TrimSpace(p.KPI)
		if name == "" {
			s.logger.Warn("dropping unnamed KPI proposal")
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		fields, unknown := knownFields(p.Fields, schema)
		if len(fields) == 0 {
			s.logger.Warn("dropping KPI proposal with no usable fields",
				zap.String("kpi", name),
				zap.Strings("unknown_fields", unknown))
			continue
		}
		if len(unknown) > 0 {
			s.logger.Warn("ignoring unknown columns in KPI proposal",
				zap.String("kpi", name),
				zap.Strings("unknown_fields", unknown))
		}
		seen[key] = true
		specs = append(specs, models.KPISpec{
			ID:             uuid.NewString(),
			Name:           name,
			Description:    strings.TrimSpace(p.Description),
			RequiredFields: fields,
			Aggregation:    deriveAggregation(fields, schema),
		})
		if len(specs) == n {
			break
		}
	}
	return specs
}

// knownFields splits proposed field names into those present in the schema
// and those the model invented.
func knownFields(proposed []string, schema *models.Schema) (fields, unknown []string) {
	seen := make(map[string]bool)
	for _, f := range proposed {
		name := strings.TrimSpace(f)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if schema.HasColumn(name) {
			fields = append(fields, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	return fields, unknown
}

// deriveAggregation picks the aggregation from proposed field roles: specs
// touching at least one measure sum it, everything else counts rows.
func deriveAggregation(fields []string, schema *models.Schema) models.Aggregation {
	for _, f := range fields {
		meta := schema.Column(f)
		if meta != nil && meta.IsNumeric() && meta.Role != models.RoleIdentifier {
			return models.AggregationSum
		}
	}
	return models.AggregationCount
}

// fallbackProposals derives KPIs from column roles when no LLM is configured.
// Each non-datetime metric gets a sum KPI paired with the first datetime
// column so trend analysis has a time axis, plus one row-count KPI.
func (s *kpiProposalService) fallbackProposals(schema *models.Schema, n int) []models.KPISpec {
	var timeCol string
	if dts := schema.DatetimeColumns(); len(dts) > 0 {
		timeCol = dts[0].Name
	}

	var specs []models.KPISpec
	for _, metric := range schema.MetricColumns() {
		if metric.InferredType == models.ColumnTypeDatetime {
			continue
		}
		fields := []string{metric.Name}
		if timeCol != "" && timeCol != metric.Name {
			fields = append(fields, timeCol)
		}
		specs = append(specs, models.KPISpec{
			ID:             uuid.NewString(),
			Name:           fmt.Sprintf("Total %s", metric.EntityName),
			Description:    fmt.Sprintf("Sum of %s across all rows", metric.Name),
			RequiredFields: fields,
			Aggregation:    models.AggregationSum,
		})
		if len(specs) == n {
			return specs
		}
	}

	if counter := countField(schema); counter != "" && len(specs) < n {
		specs = append(specs, models.KPISpec{
			ID:             uuid.NewString(),
			Name:           "Record Count",
			Description:    fmt.Sprintf("Number of rows in %s", schema.Table),
			RequiredFields: []string{counter},
			Aggregation:    models.AggregationCount,
		})
	}
	return specs
}

// countField picks the column a row-count KPI references, preferring
// identifiers over whatever happens to be first.
func countField(schema *models.Schema) string {
	if ids := schema.IdentifierColumns(); len(ids) > 0 {
		return ids[0].Name
	}
	if len(schema.Columns) > 0 {
		return schema.Columns[0].Name
	}
	return ""
}
