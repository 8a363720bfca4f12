package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/llm"
	"github.com/glint-analytics/glint-engine/pkg/models"
)

// NarrationService renders natural-language explanations of insight reports.
// Narration is best-effort: the pipeline never depends on its output, and an
// LLM failure degrades to an empty narrative instead of failing the KPI.
type NarrationService interface {
	// NarrateKPI writes a short prose summary of one KPI's report.
	NarrateKPI(ctx context.Context, spec *models.KPISpec, report *models.InsightReport) string
	// SummarizeRun writes a run-level summary across all KPI narratives.
	SummarizeRun(ctx context.Context, question string, result *models.PipelineResult) string
}

type narrationService struct {
	client llm.LLMClient
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewNarrationService creates a narration service. client may be nil, in
// which case narratives are assembled from report fields without an LLM.
func NewNarrationService(client llm.LLMClient, cfg *config.AIConfig, logger *zap.Logger) NarrationService {
	return &narrationService{
		client: client,
		cfg:    cfg,
		logger: logger.Named("narration"),
	}
}

var _ NarrationService = (*narrationService)(nil)

const narrationSystemMessage = `You are a data analyst assistant. You write short, plain-language summaries of statistical findings. Respond with the summary text only.`

const summarySystemMessage = `You are a senior data analyst. You condense individual KPI findings into an overall picture. Respond with the bullet-point summary only.`

// strongCorrelation is the absolute coefficient above which the fallback
// narrative calls a pair out.
const strongCorrelation = 0.7

func (s *narrationService) NarrateKPI(ctx context.Context, spec *models.KPISpec, report *models.InsightReport) string {
	if report == nil || report.RowCount == 0 {
		return fmt.Sprintf("No data available to generate insights for KPI %q.", kpiLabel(spec, report))
	}
	if s.client == nil {
		return deterministicNarrative(spec, report)
	}

	content, err := generateWithRetry(ctx, s.client, s.cfg, s.logger, buildNarrationPrompt(spec, report), narrationSystemMessage)
	if err != nil {
		s.logger.Warn("narration failed, continuing without prose",
			zap.String("kpi_id", report.KPIID),
			zap.Error(err))
		return ""
	}
	return content
}

func (s *narrationService) SummarizeRun(ctx context.Context, question string, result *models.PipelineResult) string {
	if result == nil || len(result.Outcomes) == 0 {
		return ""
	}
	if s.client == nil {
		return deterministicSummary(question, result)
	}

	blocks := narrativeBlocks(result)
	if len(blocks) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Given the following individual KPI insight summaries:\n\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\nGenerate a concise, bullet-point list summarizing the key overall insights across all KPIs.\n")
	sb.WriteString("Highlight the most important findings, patterns, and actionable recommendations.\n")
	sb.WriteString("Respond ONLY with the bullet-point summary.\n")

	content, err := generateWithRetry(ctx, s.client, s.cfg, s.logger, sb.String(), summarySystemMessage)
	if err != nil {
		s.logger.Warn("run summary failed, continuing without prose",
			zap.String("run_id", result.RunID),
			zap.Error(err))
		return ""
	}
	return content
}

func buildNarrationPrompt(spec *models.KPISpec, report *models.InsightReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Given the KPI named '%s'", kpiLabel(spec, report)))
	if spec != nil && spec.Description != "" {
		sb.WriteString(fmt.Sprintf(" with description:\n%q", spec.Description))
	}
	sb.WriteString("\n\nAnd the following descriptive statistics on relevant numeric fields:\n")
	sb.WriteString(statsLines(report))
	sb.WriteString("\nThe following trends have been detected over time:\n")
	sb.WriteString(trendLine(report.Trend))
	sb.WriteString("\nAnd here are the correlations among numeric features:\n")
	sb.WriteString(correlationLines(report.Correlations))
	sb.WriteString("\nAdditionally, here are some key categorical data distributions:\n")
	sb.WriteString(categoricalLines(report.Categorical))
	sb.WriteString("\nGenerate a concise and clear natural-language summary of insights and potential recommendations related to this KPI, highlighting key statistics, trends, correlations, categorical distributions, and any notable observations.\n")
	sb.WriteString("Respond ONLY with the summary text.\n")

	return sb.String()
}

func statsLines(report *models.InsightReport) string {
	if len(report.DescriptiveStats) == 0 {
		return "No numeric data available.\n"
	}

	var sb strings.Builder
	for _, name := range sortedKeys(report.DescriptiveStats) {
		d := report.DescriptiveStats[name]
		sb.WriteString(fmt.Sprintf(" - %s: mean=%.4g median=%.4g min=%.4g max=%.4g stddev=%.4g (n=%d)\n",
			name, d.Mean, d.Median, d.Min, d.Max, d.StdDev, d.Count))
	}
	return sb.String()
}

func trendLine(trend *models.Trend) string {
	if trend == nil {
		return "No significant trends detected.\n"
	}
	return fmt.Sprintf(" - Field '%s': %s trend over '%s' (slope: %.4f, confidence: %.2f)\n",
		trend.ValueColumn, trendWord(trend.Direction), trend.TimeColumn, trend.Slope, trend.Confidence)
}

func trendWord(d models.TrendDirection) string {
	switch d {
	case models.TrendUp:
		return "increasing"
	case models.TrendDown:
		return "decreasing"
	}
	return "stable"
}

func correlationLines(correlations []models.Correlation) string {
	if len(correlations) == 0 {
		return "No correlation data available.\n"
	}
	var sb strings.Builder
	for _, c := range correlations {
		sb.WriteString(fmt.Sprintf(" - %s vs %s: %.2f\n", c.ColumnA, c.ColumnB, c.Coefficient))
	}
	return sb.String()
}

func categoricalLines(categorical map[string][]models.ValueCount) string {
	if len(categorical) == 0 {
		return "No categorical data available.\n"
	}

	var sb strings.Builder
	for _, name := range sortedKeys(categorical) {
		sb.WriteString(fmt.Sprintf("Distribution for '%s':\n", name))
		for _, vc := range categorical[name] {
			sb.WriteString(fmt.Sprintf(" - %s: %d records\n", vc.Value, vc.Count))
		}
	}
	return sb.String()
}

// deterministicNarrative assembles a plain-language summary from the report
// without an LLM. One sentence per available analysis, in a fixed order.
func deterministicNarrative(spec *models.KPISpec, report *models.InsightReport) string {
	parts := []string{fmt.Sprintf("%s covers %d rows.", kpiLabel(spec, report), report.RowCount)}

	for _, name := range sortedKeys(report.DescriptiveStats) {
		d := report.DescriptiveStats[name]
		parts = append(parts, fmt.Sprintf("%s averages %.4g (median %.4g, range %.4g to %.4g).",
			name, d.Mean, d.Median, d.Min, d.Max))
	}
	if t := report.Trend; t != nil && t.Direction != models.TrendFlat {
		parts = append(parts, fmt.Sprintf("%s is %s over %s.", t.ValueColumn, trendWord(t.Direction), t.TimeColumn))
	}
	for _, c := range report.Correlations {
		if math.Abs(c.Coefficient) < strongCorrelation {
			continue
		}
		relation := "move together"
		if c.Coefficient < 0 {
			relation = "move in opposite directions"
		}
		parts = append(parts, fmt.Sprintf("%s and %s %s (correlation %.2f).", c.ColumnA, c.ColumnB, relation, c.Coefficient))
	}
	if n := len(report.Outliers); n == 1 {
		parts = append(parts, "1 row looks like an outlier.")
	} else if n > 1 {
		parts = append(parts, fmt.Sprintf("%d rows look like outliers.", n))
	}
	if report.Clusters != nil {
		parts = append(parts, fmt.Sprintf("The rows fall into %d clusters.", report.Clusters.ClusterCount))
	}
	return strings.Join(parts, " ")
}

// deterministicSummary reports the shape of the run without an LLM.
func deterministicSummary(question string, result *models.PipelineResult) string {
	succeeded := 0
	for _, o := range result.Outcomes {
		if o.Succeeded() {
			succeeded++
		}
	}
	scope := ""
	if question != "" {
		scope = fmt.Sprintf(" for %q", question)
	}
	return fmt.Sprintf("Analyzed %d KPIs%s: %d produced reports, %d failed.",
		len(result.Outcomes), scope, succeeded, result.FailureCount())
}

// narrativeBlocks collects per-KPI narratives in a stable order.
func narrativeBlocks(result *models.PipelineResult) []string {
	var blocks []string
	for _, id := range sortedKeys(result.Outcomes) {
		report := result.Outcomes[id].Report
		if report == nil || report.Narrative == "" {
			continue
		}
		label := report.Name
		if label == "" {
			label = report.KPIID
		}
		blocks = append(blocks, fmt.Sprintf("KPI: %s\nInsight:\n%s", label, report.Narrative))
	}
	return blocks
}

func kpiLabel(spec *models.KPISpec, report *models.InsightReport) string {
	switch {
	case spec != nil && spec.Name != "":
		return spec.Name
	case report != nil && report.Name != "":
		return report.Name
	case report != nil && report.KPIID != "":
		return report.KPIID
	}
	return "unknown"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
