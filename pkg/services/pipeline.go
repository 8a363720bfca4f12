package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/models"
	"github.com/glint-analytics/glint-engine/pkg/workerpool"
)

// PipelineCoordinator runs planning, execution and analysis for a batch of
// KPI specs. Each KPI is an independent work unit: a failure in any stage is
// captured as a FailureRecord in that KPI's outcome and never aborts the
// others, so the aggregate always holds exactly one outcome per input id.
type PipelineCoordinator interface {
	Run(ctx context.Context, question string, schema *models.Schema, specs []models.KPISpec) (*models.PipelineResult, error)
}

type pipelineCoordinator struct {
	planner   QueryPlanner
	engine    InsightEngine
	narration NarrationService
	charts    ChartRecommendationService
	cfg       *config.PipelineConfig
	logger    *zap.Logger
}

// NewPipelineCoordinator creates a pipeline coordinator. narration and charts
// may be nil; reports are then produced without prose or chart hints.
func NewPipelineCoordinator(planner QueryPlanner, engine InsightEngine, narration NarrationService, charts ChartRecommendationService, cfg *config.PipelineConfig, logger *zap.Logger) PipelineCoordinator {
	return &pipelineCoordinator{
		planner:   planner,
		engine:    engine,
		narration: narration,
		charts:    charts,
		cfg:       cfg,
		logger:    logger.Named("pipeline"),
	}
}

var _ PipelineCoordinator = (*pipelineCoordinator)(nil)

func (c *pipelineCoordinator) Run(ctx context.Context, question string, schema *models.Schema, specs []models.KPISpec) (*models.PipelineResult, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	started := time.Now()
	result := &models.PipelineResult{
		RunID:    uuid.NewString(),
		Question: question,
		Outcomes: make(map[string]models.KPIOutcome, len(specs)),
	}

	pool := workerpool.New(workerpool.Config{MaxConcurrent: c.cfg.MaxConcurrent}, c.logger)
	items := make([]workerpool.WorkItem[models.KPIOutcome], 0, len(specs))
	for _, spec := range specs {
		items = append(items, workerpool.WorkItem[models.KPIOutcome]{
			ID: spec.ID,
			Execute: func(ctx context.Context) (models.KPIOutcome, error) {
				return c.processKPI(ctx, spec, schema), nil
			},
		})
	}

	results := workerpool.Process(ctx, pool, items, func(completed, total int) {
		c.logger.Debug("KPI processed",
			zap.String("run_id", result.RunID),
			zap.Int("completed", completed),
			zap.Int("total", total))
	})
	for _, r := range results {
		outcome := r.Result
		if r.Err != nil {
			// The pool abandoned the item before any stage ran.
			outcome = failureOutcome(r.ID, models.StagePlanning, fmt.Errorf("abandoned before planning: %w", r.Err))
		}
		result.Outcomes[r.ID] = outcome
	}

	if c.narration != nil && len(result.Outcomes) > 0 {
		result.Summary = c.narration.SummarizeRun(ctx, question, result)
	}

	c.logger.Info("pipeline run complete",
		zap.String("run_id", result.RunID),
		zap.Int("kpis", len(specs)),
		zap.Int("failures", result.FailureCount()),
		zap.Duration("duration", time.Since(started)))
	return result, nil
}

// processKPI takes one spec through planning, execution and analysis under
// the per-KPI timeout. Store executions are never retried; a timeout becomes
// a FailureRecord like any other stage error.
func (c *pipelineCoordinator) processKPI(ctx context.Context, spec models.KPISpec, schema *models.Schema) models.KPIOutcome {
	kpiCtx, cancel := context.WithTimeout(ctx, c.cfg.KPITimeout())
	defer cancel()

	plan, err := c.planner.Plan(&spec, schema)
	if err != nil {
		return failureOutcome(spec.ID, models.StagePlanning, err)
	}

	slice, err := c.planner.Execute(kpiCtx, plan)
	if err != nil {
		return failureOutcome(spec.ID, models.StageExecution, err)
	}

	report := c.engine.Analyze(slice, schema)
	if report == nil {
		return failureOutcome(spec.ID, models.StageAnalysis, fmt.Errorf("no report produced"))
	}
	report.Name = spec.Name

	if c.narration != nil {
		report.Narrative = c.narration.NarrateKPI(kpiCtx, &spec, report)
	}

	outcome := models.KPIOutcome{Report: report}
	if c.charts != nil {
		outcome.Chart = c.charts.Recommend(kpiCtx, &spec, slice, schema)
	}
	return outcome
}

func failureOutcome(kpiID string, stage models.Stage, err error) models.KPIOutcome {
	return models.KPIOutcome{
		Failure: &models.FailureRecord{
			KPIID:   kpiID,
			Stage:   stage,
			Message: err.Error(),
		},
	}
}
