package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/llm"
	"github.com/glint-analytics/glint-engine/pkg/models"
)

func chartSlice() *models.ResultSlice {
	return sliceOf("kpi-1", []string{"amount", "region", "sold_at"},
		[]any{120.5, "west", day(0)},
		[]any{80.0, "east", day(1)},
		[]any{200.0, "west", day(2)},
	)
}

func TestChartRecommendationService_Recommend_AcceptsValidSuggestion(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = proposalResponse(`{"chart_type": "bar", "x_axis": "region", "y_axis": "amount", "title": "Revenue by Region"}`)
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	assert.Equal(t, models.ChartBar, chart.Type)
	assert.Equal(t, "region", chart.XAxis)
	assert.Equal(t, "amount", chart.YAxis)
	assert.Equal(t, "Revenue by Region", chart.Title)

	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "amount (numeric, metric)")
	assert.Contains(t, mock.Prompts[0], "region (categorical, dimension)")
}

func TestChartRecommendationService_Recommend_ListSuggestionTakesFirst(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = proposalResponse(`[
		{"chart_type": "line", "x_axis": "sold_at", "y_axis": "amount", "title": "Revenue over time"},
		{"chart_type": "bar", "x_axis": "region", "y_axis": "amount", "title": "Revenue by region"}
	]`)
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	assert.Equal(t, models.ChartLine, chart.Type)
	assert.Equal(t, "sold_at", chart.XAxis)
}

func TestChartRecommendationService_Recommend_UnknownAxisFallsBack(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = proposalResponse(`{"chart_type": "bar", "x_axis": "profit", "y_axis": "amount", "title": "Profit"}`)
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	// Fallback: the slice has a datetime column, so time wins.
	assert.Equal(t, models.ChartLine, chart.Type)
	assert.Equal(t, "sold_at", chart.XAxis)
	assert.Equal(t, "amount", chart.YAxis)
	assert.Equal(t, "region", chart.Color)
}

func TestChartRecommendationService_Recommend_UnknownTypeFallsBack(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = proposalResponse(`{"chart_type": "heatmap", "x_axis": "region", "y_axis": "amount", "title": "Heat"}`)
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	assert.True(t, models.ValidChartType(chart.Type))
	assert.Equal(t, models.ChartLine, chart.Type)
}

func TestChartRecommendationService_Recommend_MalformedJSONFallsBack(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = proposalResponse("a bar chart would be nice")
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	assert.Equal(t, models.ChartLine, chart.Type)
}

func TestChartRecommendationService_Recommend_LLMErrorFallsBack(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (*llm.GenerateResponseResult, error) {
		return nil, llm.NewError(llm.ErrorTypeAuth, "invalid api key", false, nil)
	}
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	assert.Equal(t, models.ChartLine, chart.Type)
}

func TestChartRecommendationService_Recommend_InvalidColorCleared(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = proposalResponse(`{"chart_type": "bar", "x_axis": "region", "y_axis": "amount", "title": "Revenue", "color": "country"}`)
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	chart := svc.Recommend(context.Background(), revenueSpec(), chartSlice(), insightSchema())
	require.NotNil(t, chart)
	assert.Equal(t, models.ChartBar, chart.Type)
	assert.Empty(t, chart.Color)
}

func TestChartRecommendationService_Recommend_EmptySliceSkipsLLM(t *testing.T) {
	mock := llm.NewMockLLMClient()
	svc := NewChartRecommendationService(mock, testAIConfig(), zap.NewNop())

	slice := sliceOf("kpi-1", []string{"amount", "region"})
	chart := svc.Recommend(context.Background(), revenueSpec(), slice, insightSchema())
	require.NotNil(t, chart)
	assert.Zero(t, mock.GenerateResponseCalls)
}

func TestFallbackChart_RoleRules(t *testing.T) {
	schema := insightSchema()
	spec := revenueSpec()

	tests := []struct {
		name    string
		columns []string
		want    models.ChartSpec
	}{
		{
			name:    "datetime and metric gives line",
			columns: []string{"amount", "region", "sold_at"},
			want:    models.ChartSpec{Type: models.ChartLine, XAxis: "sold_at", YAxis: "amount", Color: "region"},
		},
		{
			name:    "dimension and metric gives bar",
			columns: []string{"amount", "region"},
			want:    models.ChartSpec{Type: models.ChartBar, XAxis: "region", YAxis: "amount"},
		},
		{
			name:    "two metrics give scatter",
			columns: []string{"amount", "quantity"},
			want:    models.ChartSpec{Type: models.ChartScatter, XAxis: "amount", YAxis: "quantity"},
		},
		{
			name:    "dimension only gives table",
			columns: []string{"region"},
			want:    models.ChartSpec{Type: models.ChartTable},
		},
		{
			name:    "identifier does not count as metric",
			columns: []string{"order_id", "region"},
			want:    models.ChartSpec{Type: models.ChartTable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slice := sliceOf("kpi-1", tt.columns)
			chart := fallbackChart(spec, slice, schema)
			require.NotNil(t, chart)
			assert.Equal(t, tt.want.Type, chart.Type)
			assert.Equal(t, tt.want.XAxis, chart.XAxis)
			assert.Equal(t, tt.want.YAxis, chart.YAxis)
			assert.Equal(t, tt.want.Color, chart.Color)
			assert.NotEmpty(t, chart.Title)
		})
	}
}

func TestFallbackChart_BarTitleNamesDimension(t *testing.T) {
	slice := sliceOf("kpi-1", []string{"amount", "region"})
	chart := fallbackChart(revenueSpec(), slice, insightSchema())
	assert.Equal(t, "Total Revenue by region", chart.Title)
}

func TestFallbackChart_NilSliceIsTable(t *testing.T) {
	chart := fallbackChart(revenueSpec(), nil, insightSchema())
	require.NotNil(t, chart)
	assert.Equal(t, models.ChartTable, chart.Type)
	assert.Equal(t, "Total Revenue", chart.Title)
}
