package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/models"
)

// metadataSampleLimit caps how many example values are kept per column in the
// schema. Samples feed prompts and logs; more than a handful adds no signal.
const metadataSampleLimit = 5

// datetimeLayouts are tried in order when deciding whether a text value is a
// timestamp. Kept in sync with the layouts the CSV loader accepts.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// SchemaAnalyzer infers a typed, role-annotated schema from the backing
// store's column profiles. The result is computed once per dataset load and
// treated as immutable for the rest of the run.
type SchemaAnalyzer interface {
	// Analyze profiles every column and classifies its type and semantic role.
	// It fails with a SchemaError when the table has no columns or no rows;
	// data-quality problems inside a column degrade classification instead of
	// failing the call. Classification is deterministic: identical profiles
	// always produce identical metadata.
	Analyze(ctx context.Context) (*models.Schema, error)
}

type schemaAnalyzer struct {
	store  store.Store
	cfg    *config.SchemaConfig
	logger *zap.Logger
}

// NewSchemaAnalyzer creates a SchemaAnalyzer reading from the given store.
func NewSchemaAnalyzer(st store.Store, cfg *config.SchemaConfig, logger *zap.Logger) SchemaAnalyzer {
	return &schemaAnalyzer{
		store:  st,
		cfg:    cfg,
		logger: logger.Named("schema-analyzer"),
	}
}

var _ SchemaAnalyzer = (*schemaAnalyzer)(nil)

func (s *schemaAnalyzer) Analyze(ctx context.Context) (*models.Schema, error) {
	profiles, err := s.store.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("profiling columns: %w", err)
	}
	if len(profiles) == 0 {
		return nil, &apperrors.SchemaError{Err: apperrors.ErrNoColumns}
	}
	if profiles[0].TotalRows == 0 {
		return nil, &apperrors.SchemaError{Err: apperrors.ErrEmptyDataset}
	}

	schema := &models.Schema{
		Table:   s.store.Table(),
		Columns: make([]models.ColumnMetadata, 0, len(profiles)),
	}
	for _, p := range profiles {
		meta := s.classify(p)
		s.logger.Debug("classified column",
			zap.String("column", meta.Name),
			zap.String("type", string(meta.InferredType)),
			zap.String("role", string(meta.Role)),
			zap.Int("cardinality", meta.Cardinality),
			zap.Float64("null_fraction", meta.NullFraction))
		schema.Columns = append(schema.Columns, meta)
	}

	s.logger.Info("schema analyzed",
		zap.String("table", schema.Table),
		zap.Int("columns", len(schema.Columns)),
		zap.Int("metrics", len(schema.MetricColumns())),
		zap.Int("dimensions", len(schema.DimensionColumns())),
		zap.Int("identifiers", len(schema.IdentifierColumns())))
	return schema, nil
}

// classify derives one column's metadata from its store profile.
func (s *schemaAnalyzer) classify(p store.ColumnProfile) models.ColumnMetadata {
	tally := tallySamples(p.Samples)
	colType := s.inferType(p, tally)

	return models.ColumnMetadata{
		Name:         p.Name,
		InferredType: colType,
		Role:         s.assignRole(p, colType, tally),
		NullFraction: nullFraction(p),
		Cardinality:  p.DistinctCount,
		RowCount:     p.TotalRows,
		SampleValues: sampleStrings(p.Samples, metadataSampleLimit),
		EntityName:   models.DisplayName(p.Name),
	}
}

// inferType classifies the column by parse rate over its sampled non-null
// values: datetime wins above the type threshold, then numeric, then the
// cardinality rule decides between categorical and free text.
func (s *schemaAnalyzer) inferType(p store.ColumnProfile, t sampleTally) models.ColumnType {
	if t.total > 0 {
		threshold := s.cfg.TypeThreshold
		if float64(t.datetime)/float64(t.total) >= threshold {
			return models.ColumnTypeDatetime
		}
		if float64(t.numeric)/float64(t.total) >= threshold {
			return models.ColumnTypeNumeric
		}
	}
	if s.isLowCardinality(p) {
		return models.ColumnTypeCategorical
	}
	return models.ColumnTypeText
}

// isLowCardinality applies the categorical rule: distinct ratio at or below
// the configured threshold, or absolute cardinality under the cap.
func (s *schemaAnalyzer) isLowCardinality(p store.ColumnProfile) bool {
	return distinctRatio(p) <= s.cfg.CategoricalRatio || p.DistinctCount < s.cfg.CategoricalCap
}

// assignRole is deterministic given type, cardinality, and name. Identifier
// checks run first because identifiers are excluded from metric and dimension
// eligibility. Uniqueness-based promotion is restricted to integer and text
// columns: a continuous measure is expected to be nearly unique, and a
// timestamp column is the time axis rather than a key.
func (s *schemaAnalyzer) assignRole(p store.ColumnProfile, colType models.ColumnType, t sampleTally) models.ColumnRole {
	if isIdentifierName(p.Name) {
		return models.RoleIdentifier
	}
	if distinctRatio(p) >= s.cfg.IdentifierUniqueRatio && uniquenessEligible(colType, t) {
		return models.RoleIdentifier
	}
	switch colType {
	case models.ColumnTypeNumeric, models.ColumnTypeDatetime:
		// Low-cardinality numerics (flags, small code sets) group rows
		// rather than measure them.
		if distinctRatio(p) <= s.cfg.CategoricalRatio {
			return models.RoleDimension
		}
		return models.RoleMetric
	default:
		return models.RoleDimension
	}
}

// uniquenessEligible reports whether near-unique values alone are enough to
// call the column an identifier.
func uniquenessEligible(colType models.ColumnType, t sampleTally) bool {
	switch colType {
	case models.ColumnTypeText:
		return true
	case models.ColumnTypeNumeric:
		return t.numeric > 0 && t.integral == t.numeric
	default:
		return false
	}
}

// isIdentifierName reports whether the column name follows a key naming
// convention.
func isIdentifierName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "id" || n == "uuid" || n == "guid" {
		return true
	}
	for _, suffix := range []string{"_id", "_key", "_uuid", "_guid"} {
		if strings.HasSuffix(n, suffix) {
			return true
		}
	}
	return false
}

// sampleTally counts how many sampled values parse as each candidate type.
type sampleTally struct {
	total    int
	datetime int
	numeric  int
	integral int // numeric values with no fractional part
}

func tallySamples(samples []any) sampleTally {
	t := sampleTally{total: len(samples)}
	for _, v := range samples {
		switch val := v.(type) {
		case time.Time:
			t.datetime++
		case int:
			t.numeric++
			t.integral++
		case int32:
			t.numeric++
			t.integral++
		case int64:
			t.numeric++
			t.integral++
		case float32:
			t.addFloat(float64(val))
		case float64:
			t.addFloat(val)
		case []byte:
			t.addText(string(val))
		case string:
			t.addText(val)
		}
		// Booleans and anything else group rows; they count as neither
		// numeric nor datetime and fall through to the cardinality rule.
	}
	return t
}

func (t *sampleTally) addFloat(f float64) {
	t.numeric++
	if f == math.Trunc(f) {
		t.integral++
	}
}

func (t *sampleTally) addText(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		t.addFloat(f)
		return
	}
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			t.datetime++
			return
		}
	}
}

func distinctRatio(p store.ColumnProfile) float64 {
	if p.TotalRows == 0 {
		return 0
	}
	return float64(p.DistinctCount) / float64(p.TotalRows)
}

func nullFraction(p store.ColumnProfile) float64 {
	if p.TotalRows == 0 {
		return 0
	}
	return float64(p.NullCount) / float64(p.TotalRows)
}

// sampleStrings renders up to limit distinct sample values for display and
// prompting.
func sampleStrings(samples []any, limit int) []string {
	var out []string
	seen := make(map[string]struct{}, limit)
	for _, v := range samples {
		str := formatSample(v)
		if _, dup := seen[str]; dup {
			continue
		}
		seen[str] = struct{}{}
		out = append(out, str)
		if len(out) == limit {
			break
		}
	}
	return out
}

func formatSample(v any) string {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}
