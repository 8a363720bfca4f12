package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/models"
	"github.com/glint-analytics/glint-engine/pkg/stats"
)

// InsightEngine runs the fixed statistical battery over one KPI's result
// slice: descriptive stats, categorical frequencies, trend, correlations,
// outliers and clustering. It never fails on valid input; a sub-analysis
// whose preconditions are unmet leaves its report field absent.
type InsightEngine interface {
	Analyze(slice *models.ResultSlice, schema *models.Schema) *models.InsightReport
}

type insightEngine struct {
	cfg    *config.InsightConfig
	logger *zap.Logger
}

// NewInsightEngine creates an InsightEngine with the given thresholds.
func NewInsightEngine(cfg *config.InsightConfig, logger *zap.Logger) InsightEngine {
	return &insightEngine{
		cfg:    cfg,
		logger: logger.Named("insight-engine"),
	}
}

var _ InsightEngine = (*insightEngine)(nil)

func (e *insightEngine) Analyze(slice *models.ResultSlice, schema *models.Schema) *models.InsightReport {
	report := &models.InsightReport{KPIID: slice.KPIID, RowCount: slice.RowCount()}
	if slice.RowCount() == 0 {
		return report
	}

	numeric := analysisColumns(slice, schema)
	report.DescriptiveStats = e.describeColumns(slice, numeric)
	report.Categorical = e.categoricalCounts(slice, schema)
	report.Trend = e.fitTrend(slice, schema, numeric)
	report.Correlations = e.correlations(slice, numeric)
	report.Outliers = e.outlierRows(slice, numeric)
	report.Clusters = e.clusterRows(slice, numeric)

	e.logger.Debug("analyzed slice",
		zap.String("kpi_id", slice.KPIID),
		zap.Int("rows", report.RowCount),
		zap.Int("numeric_columns", len(numeric)),
		zap.Bool("trend", report.Trend != nil),
		zap.Int("correlations", len(report.Correlations)),
		zap.Int("outliers", len(report.Outliers)),
		zap.Bool("clusters", report.Clusters != nil))
	return report
}

// analysisColumns returns the slice's numeric measure columns in slice order.
// Identifier-role columns are excluded from every numeric analysis; summing
// or correlating keys produces noise, not insight.
func analysisColumns(slice *models.ResultSlice, schema *models.Schema) []string {
	var out []string
	for _, name := range slice.Columns {
		col := schema.Column(name)
		if col != nil && col.IsNumeric() && col.Role != models.RoleIdentifier {
			out = append(out, name)
		}
	}
	return out
}

func (e *insightEngine) describeColumns(slice *models.ResultSlice, numeric []string) map[string]models.Descriptive {
	out := make(map[string]models.Descriptive, len(numeric))
	for _, name := range numeric {
		values, _ := stats.FloatColumn(slice.ColumnValues(name))
		summary, ok := stats.Describe(values)
		if !ok {
			continue
		}
		out[name] = models.Descriptive{
			Count:  summary.Count,
			Mean:   summary.Mean,
			Median: summary.Median,
			StdDev: summary.StdDev,
			Min:    summary.Min,
			Max:    summary.Max,
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (e *insightEngine) categoricalCounts(slice *models.ResultSlice, schema *models.Schema) map[string][]models.ValueCount {
	out := make(map[string][]models.ValueCount)
	for _, name := range slice.Columns {
		col := schema.Column(name)
		if col == nil || col.Role != models.RoleDimension {
			continue
		}
		counts := topValueCounts(slice.ColumnValues(name), e.cfg.CategoricalTopN)
		if len(counts) > 0 {
			out[name] = counts
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// topValueCounts tallies the non-null values of one dimension column and
// keeps the topN most frequent, ties broken by value so the cut is stable.
func topValueCounts(cells []any, topN int) []models.ValueCount {
	freq := make(map[string]int)
	for _, c := range cells {
		if c == nil {
			continue
		}
		freq[formatSample(c)]++
	}
	entries := make([]models.ValueCount, 0, len(freq))
	for v, n := range freq {
		entries = append(entries, models.ValueCount{Value: v, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// fitTrend fits value over time for the slice's first datetime column and
// first numeric measure column. Direction is flat unless the fitted change
// across the observed span exceeds the noise threshold relative to the value
// range; confidence is the coefficient of determination.
func (e *insightEngine) fitTrend(slice *models.ResultSlice, schema *models.Schema, numeric []string) *models.Trend {
	timeCol := firstDatetimeColumn(slice, schema)
	if timeCol == "" {
		return nil
	}
	valueCol := ""
	for _, name := range numeric {
		if name != timeCol {
			valueCol = name
			break
		}
	}
	if valueCol == "" {
		return nil
	}

	times := slice.ColumnValues(timeCol)
	values := slice.ColumnValues(valueCol)
	var xs, ys []float64
	for i := range times {
		x, okX := timeOrdinal(times[i])
		y, okY := stats.CoerceFloat(values[i])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}

	fit, ok := stats.LinearFit(xs, ys)
	if !ok {
		return nil
	}

	span := sliceRange(xs)
	valueRange := sliceRange(ys)
	change := fit.Slope * span

	direction := models.TrendFlat
	if valueRange > 0 && math.Abs(change) > e.cfg.TrendNoiseRatio*valueRange {
		if fit.Slope > 0 {
			direction = models.TrendUp
		} else {
			direction = models.TrendDown
		}
	}

	return &models.Trend{
		Direction:   direction,
		Slope:       fit.Slope,
		Confidence:  fit.R2,
		TimeColumn:  timeCol,
		ValueColumn: valueCol,
	}
}

func firstDatetimeColumn(slice *models.ResultSlice, schema *models.Schema) string {
	for _, name := range slice.Columns {
		if col := schema.Column(name); col != nil && col.IsDatetime() {
			return name
		}
	}
	return ""
}

// timeOrdinal converts a datetime cell into a numeric ordinal for trend
// fitting. Stores return native timestamps; text-typed date columns arrive
// as strings and are parsed with the same layouts schema inference uses.
func timeOrdinal(v any) (float64, bool) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.Unix()), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range datetimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return float64(parsed.Unix()), true
			}
		}
		return 0, false
	case []byte:
		return timeOrdinal(string(t))
	default:
		return stats.CoerceFloat(v)
	}
}

func sliceRange(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func (e *insightEngine) correlations(slice *models.ResultSlice, numeric []string) []models.Correlation {
	if len(numeric) < 2 || slice.RowCount() < 3 {
		return nil
	}
	var out []models.Correlation
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			xs, ys := pairedColumns(slice, numeric[i], numeric[j])
			if len(xs) < 3 {
				continue
			}
			r, ok := stats.Pearson(xs, ys)
			if !ok {
				continue
			}
			out = append(out, models.Correlation{
				ColumnA:     numeric[i],
				ColumnB:     numeric[j],
				Coefficient: r,
			})
		}
	}
	return out
}

// pairedColumns returns the rows where both columns hold a numeric value.
func pairedColumns(slice *models.ResultSlice, a, b string) (xs, ys []float64) {
	colA := slice.ColumnValues(a)
	colB := slice.ColumnValues(b)
	for i := range colA {
		x, okX := stats.CoerceFloat(colA[i])
		y, okY := stats.CoerceFloat(colB[i])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// outlierRows flags rows deviating beyond the sigma threshold in any numeric
// column. The union of flagged rows is returned in original row order.
func (e *insightEngine) outlierRows(slice *models.ResultSlice, numeric []string) []int {
	flagged := make(map[int]struct{})
	for _, name := range numeric {
		values, indices := stats.FloatColumn(slice.ColumnValues(name))
		for _, pos := range stats.OutlierIndices(values, e.cfg.OutlierSigma) {
			flagged[indices[pos]] = struct{}{}
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	out := make([]int, 0, len(flagged))
	for idx := range flagged {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// clusterRows partitions the complete numeric rows with deterministic
// k-means. Absent below the minimum row count or with fewer than two
// numeric columns.
func (e *insightEngine) clusterRows(slice *models.ResultSlice, numeric []string) *models.Clustering {
	if len(numeric) < 2 || slice.RowCount() < e.cfg.ClusterMinRows {
		return nil
	}

	columns := make([][]any, len(numeric))
	for i, name := range numeric {
		columns[i] = slice.ColumnValues(name)
	}

	var points [][]float64
	var rowIdx []int
	for r := 0; r < slice.RowCount(); r++ {
		point := make([]float64, 0, len(numeric))
		complete := true
		for _, cells := range columns {
			f, ok := stats.CoerceFloat(cells[r])
			if !ok {
				complete = false
				break
			}
			point = append(point, f)
		}
		if complete {
			points = append(points, point)
			rowIdx = append(rowIdx, r)
		}
	}
	if len(points) < e.cfg.ClusterMinRows {
		return nil
	}

	result, ok := stats.KMeans(points, e.cfg.ClusterCount, e.cfg.KMeansMaxIterations)
	if !ok {
		return nil
	}

	assignments := make(map[int]int, len(result.Assignments))
	for i, cluster := range result.Assignments {
		assignments[rowIdx[i]] = cluster
	}
	return &models.Clustering{
		Assignments:  assignments,
		ClusterCount: result.K,
		Centroids:    result.Centroids,
	}
}
