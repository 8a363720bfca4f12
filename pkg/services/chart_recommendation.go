package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/llm"
	"github.com/glint-analytics/glint-engine/pkg/models"
)

// ChartRecommendationService picks how one KPI's result slice should be
// rendered. The result always names a valid chart type with axes present in
// the slice: a generated suggestion that fails those checks is replaced by
// the deterministic role-based fallback, never surfaced as an error.
type ChartRecommendationService interface {
	Recommend(ctx context.Context, spec *models.KPISpec, slice *models.ResultSlice, schema *models.Schema) *models.ChartSpec
}

type chartRecommendationService struct {
	client llm.LLMClient
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewChartRecommendationService creates a chart recommendation service.
// client may be nil, in which case only the role-based fallback is used.
func NewChartRecommendationService(client llm.LLMClient, cfg *config.AIConfig, logger *zap.Logger) ChartRecommendationService {
	return &chartRecommendationService{
		client: client,
		cfg:    cfg,
		logger: logger.Named("chart-recommendation"),
	}
}

var _ ChartRecommendationService = (*chartRecommendationService)(nil)

const chartSystemMessage = `You are a data visualization expert. You pick the single most understandable chart for a dataset. Respond with JSON only.`

func (s *chartRecommendationService) Recommend(ctx context.Context, spec *models.KPISpec, slice *models.ResultSlice, schema *models.Schema) *models.ChartSpec {
	fallback := fallbackChart(spec, slice, schema)
	if s.client == nil || slice == nil || slice.RowCount() == 0 {
		return fallback
	}

	suggested, err := s.suggestChart(ctx, spec, slice, schema)
	if err != nil {
		s.logger.Warn("chart suggestion failed, using fallback",
			zap.String("kpi_id", slice.KPIID),
			zap.Error(err))
		return fallback
	}
	if reason := validateChart(suggested, slice); reason != "" {
		s.logger.Warn("rejecting suggested chart",
			zap.String("kpi_id", slice.KPIID),
			zap.String("chart_type", string(suggested.Type)),
			zap.String("reason", reason))
		return fallback
	}
	if suggested.Title == "" {
		suggested.Title = fallback.Title
	}
	return suggested
}

func (s *chartRecommendationService) suggestChart(ctx context.Context, spec *models.KPISpec, slice *models.ResultSlice, schema *models.Schema) (*models.ChartSpec, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Given the KPI named %q", kpiDisplayName(spec, slice)))
	if spec != nil && spec.Description != "" {
		sb.WriteString(fmt.Sprintf(" with description:\n%q", spec.Description))
	}
	sb.WriteString("\n\nThe result slice has the following columns:\n")
	for _, name := range slice.Columns {
		if meta := schema.Column(name); meta != nil {
			sb.WriteString(fmt.Sprintf(" - %s (%s, %s)\n", name, meta.InferredType, meta.Role))
		} else {
			sb.WriteString(fmt.Sprintf(" - %s\n", name))
		}
	}
	sb.WriteString(fmt.Sprintf("\nIt contains %d rows.\n\n", slice.RowCount()))
	sb.WriteString("Suggest the best chart to visualize this KPI's data.\n")
	sb.WriteString("Provide a JSON object with keys:\n")
	sb.WriteString("- \"chart_type\": one of bar, line, scatter, pie, table\n")
	sb.WriteString("- \"x_axis\": column name for the x axis\n")
	sb.WriteString("- \"y_axis\": column name for the y axis, if applicable\n")
	sb.WriteString("- \"title\": a concise chart title\n")
	sb.WriteString("- \"color\": optional column to color or group by\n")
	sb.WriteString("Use only column names from the list above.\n")
	sb.WriteString("Respond with ONLY the JSON.\n")

	content, err := generateWithRetry(ctx, s.client, s.cfg, s.logger, sb.String(), chartSystemMessage)
	if err != nil {
		return nil, err
	}
	return parseChartSuggestion(content)
}

// parseChartSuggestion accepts both a single JSON object and a list of
// suggestions, taking the first entry of a list.
func parseChartSuggestion(content string) (*models.ChartSpec, error) {
	single, err := llm.ParseJSONResponse[models.ChartSpec](content)
	if err == nil && single.Type != "" {
		return &single, nil
	}
	list, listErr := llm.ParseJSONResponse[[]models.ChartSpec](content)
	if listErr == nil && len(list) > 0 {
		return &list[0], nil
	}
	if err == nil {
		err = listErr
	}
	return nil, fmt.Errorf("parse chart suggestion: %w", err)
}

// validateChart returns a rejection reason when the suggestion cannot be
// rendered over the slice, or "" when it is usable. Color is cleared rather
// than rejected since it is optional grouping, not an axis.
func validateChart(c *models.ChartSpec, slice *models.ResultSlice) string {
	if c == nil {
		return "empty suggestion"
	}
	if !models.ValidChartType(c.Type) {
		return fmt.Sprintf("unknown chart type %q", c.Type)
	}
	if c.Type != models.ChartTable && c.XAxis == "" {
		return "missing x axis"
	}
	if (c.Type == models.ChartScatter || c.Type == models.ChartLine) && c.YAxis == "" {
		return "missing y axis"
	}
	if c.XAxis != "" && !slice.HasColumn(c.XAxis) {
		return fmt.Sprintf("x axis %q not in result slice", c.XAxis)
	}
	if c.YAxis != "" && !slice.HasColumn(c.YAxis) {
		return fmt.Sprintf("y axis %q not in result slice", c.YAxis)
	}
	if c.Color != "" && !slice.HasColumn(c.Color) {
		c.Color = ""
	}
	return ""
}

// fallbackChart derives a chart from column roles: time series get lines,
// grouped measures bars, measure pairs scatter plots, and anything else a
// table.
func fallbackChart(spec *models.KPISpec, slice *models.ResultSlice, schema *models.Schema) *models.ChartSpec {
	title := kpiDisplayName(spec, slice)
	chart := &models.ChartSpec{Type: models.ChartTable, Title: title}
	if slice == nil || schema == nil {
		return chart
	}

	var datetimeCol, dimensionCol string
	var metricCols []string
	for _, name := range slice.Columns {
		meta := schema.Column(name)
		if meta == nil {
			continue
		}
		switch {
		case meta.IsDatetime():
			if datetimeCol == "" {
				datetimeCol = name
			}
		case meta.IsNumeric() && meta.Role != models.RoleIdentifier:
			metricCols = append(metricCols, name)
		case meta.Role == models.RoleDimension:
			if dimensionCol == "" {
				dimensionCol = name
			}
		}
	}

	switch {
	case datetimeCol != "" && len(metricCols) > 0:
		chart.Type = models.ChartLine
		chart.XAxis = datetimeCol
		chart.YAxis = metricCols[0]
		chart.Color = dimensionCol
	case dimensionCol != "" && len(metricCols) > 0:
		chart.Type = models.ChartBar
		chart.XAxis = dimensionCol
		chart.YAxis = metricCols[0]
		chart.Title = fmt.Sprintf("%s by %s", title, models.DisplayName(dimensionCol))
	case len(metricCols) >= 2:
		chart.Type = models.ChartScatter
		chart.XAxis = metricCols[0]
		chart.YAxis = metricCols[1]
	}
	return chart
}

func kpiDisplayName(spec *models.KPISpec, slice *models.ResultSlice) string {
	switch {
	case spec != nil && spec.Name != "":
		return spec.Name
	case slice != nil && slice.KPIID != "":
		return slice.KPIID
	}
	return "Results"
}
