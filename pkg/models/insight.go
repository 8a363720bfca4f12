package models

// Descriptive holds per-column summary statistics over a result slice.
// StdDev is 0 (not undefined) when only one non-null value is present.
type Descriptive struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ValueCount is one entry of a categorical frequency summary.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TrendDirection classifies the slope of a fitted trend line.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// Trend is the linear trend of a numeric column over a datetime column.
// Confidence is the coefficient of determination clipped to [0,1].
type Trend struct {
	Direction   TrendDirection `json:"direction"`
	Slope       float64        `json:"slope"`
	Confidence  float64        `json:"confidence"`
	TimeColumn  string         `json:"time_column"`
	ValueColumn string         `json:"value_column"`
}

// Correlation is the Pearson coefficient for one numeric column pair.
// Pairs where either column has zero variance are excluded, not reported
// as zero.
type Correlation struct {
	ColumnA     string  `json:"column_a"`
	ColumnB     string  `json:"column_b"`
	Coefficient float64 `json:"coefficient"`
}

// Clustering is a deterministic k-means partition of the slice's numeric rows.
type Clustering struct {
	Assignments  map[int]int `json:"assignments"` // row index -> cluster id
	ClusterCount int         `json:"cluster_count"`
	Centroids    [][]float64 `json:"centroids,omitempty"`
}

// InsightReport is the full analysis output for one KPI's result slice.
// Every sub-analysis is optional: when its preconditions are unmet the field
// is absent, never an error.
type InsightReport struct {
	KPIID            string                  `json:"kpi_id"`
	Name             string                  `json:"name,omitempty"`
	RowCount         int                     `json:"row_count"`
	DescriptiveStats map[string]Descriptive  `json:"descriptive_stats,omitempty"`
	Categorical      map[string][]ValueCount `json:"categorical,omitempty"`
	Trend            *Trend                  `json:"trend,omitempty"`
	Correlations     []Correlation           `json:"correlations,omitempty"`
	Outliers         []int                   `json:"outliers,omitempty"`
	Clusters         *Clustering             `json:"clusters,omitempty"`
	Narrative        string                  `json:"narrative,omitempty"`
}

// Stage names the pipeline stage where a KPI's processing failed.
type Stage string

const (
	StagePlanning  Stage = "planning"
	StageExecution Stage = "execution"
	StageAnalysis  Stage = "analysis"
)

// FailureRecord captures one KPI's failure without aborting the run.
type FailureRecord struct {
	KPIID   string `json:"kpi_id"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// KPIOutcome is the tagged per-KPI result: exactly one of Report or Failure
// is non-nil.
type KPIOutcome struct {
	Report  *InsightReport `json:"report,omitempty"`
	Failure *FailureRecord `json:"failure,omitempty"`
	Chart   *ChartSpec     `json:"chart,omitempty"`
}

// Succeeded reports whether the KPI produced a full insight report.
func (o KPIOutcome) Succeeded() bool {
	return o.Report != nil
}

// PipelineResult aggregates one run. Outcomes always contains exactly one
// entry per input KPI id, so partial success stays visible and actionable.
type PipelineResult struct {
	RunID    string                `json:"run_id"`
	Question string                `json:"question,omitempty"`
	Outcomes map[string]KPIOutcome `json:"outcomes"`
	Summary  string                `json:"summary,omitempty"`
}

// FailureCount returns the number of KPIs that ended in a failure record.
func (r *PipelineResult) FailureCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failure != nil {
			n++
		}
	}
	return n
}
