package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	_ "github.com/glint-analytics/glint-engine/pkg/adapters/store/sqlite"
	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/ingest"
	"github.com/glint-analytics/glint-engine/pkg/llm"
	"github.com/glint-analytics/glint-engine/pkg/logging"
	"github.com/glint-analytics/glint-engine/pkg/models"
	"github.com/glint-analytics/glint-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	csvPath := flag.String("csv", "", "CSV file to load into the backing store before analysis")
	question := flag.String("question", "", "Business question guiding KPI selection")
	format := flag.String("format", "json", "Output format: json or yaml")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Env, *verbose)
	defer logger.Sync()

	logger.Info("starting glint-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("store_driver", cfg.Store.Driver))

	// A first interrupt cancels the run; outcomes computed so far are kept.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, cfg, logger, *csvPath, *question)
	if err != nil {
		logger.Error("pipeline run failed", zap.String("error", logging.SanitizeError(err)))
		logger.Sync()
		log.Fatalf("Pipeline failed: %v", err)
	}

	if err := writeResult(os.Stdout, result, *format); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, csvPath, question string) (*models.PipelineResult, error) {
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if csvPath != "" {
		if err := seedStore(ctx, st, csvPath, logger); err != nil {
			return nil, err
		}
	}

	analyzer := services.NewSchemaAnalyzer(st, &cfg.Schema, logger)
	schema, err := analyzer.Analyze(ctx)
	if err != nil {
		return nil, fmt.Errorf("analyze schema: %w", err)
	}

	client, err := llm.NewFromConfig(&cfg.AI, logger)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoProviderConfig) {
			return nil, fmt.Errorf("create LLM client: %w", err)
		}
		// No provider configured; every collaborator falls back to its
		// deterministic path.
		logger.Info("no LLM provider configured, running with deterministic collaborators")
		client = nil
	}

	proposer := services.NewKPIProposalService(client, &cfg.AI, logger)
	specs, err := proposer.Propose(ctx, question, schema, cfg.AI.ProposalCount)
	if err != nil {
		return nil, fmt.Errorf("propose KPIs: %w", err)
	}

	planner := services.NewQueryPlanner(st, &cfg.Pipeline, logger)
	engine := services.NewInsightEngine(&cfg.Insights, logger)
	narration := services.NewNarrationService(client, &cfg.AI, logger)
	charts := services.NewChartRecommendationService(client, &cfg.AI, logger)
	coordinator := services.NewPipelineCoordinator(planner, engine, narration, charts, &cfg.Pipeline, logger)

	return coordinator.Run(ctx, question, schema, specs)
}

// seedStore loads a CSV file into the backing store. Only drivers that
// implement store.Loader (the embedded sqlite adapter) accept seeding;
// server-backed drivers analyze tables that already exist.
func seedStore(ctx context.Context, st store.Store, path string, logger *zap.Logger) error {
	ds, err := ingest.ReadCSVFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	loader, ok := st.(store.Loader)
	if !ok {
		return fmt.Errorf("store driver does not accept CSV loads; remove -csv or use the sqlite driver")
	}
	if err := loader.LoadTable(ctx, ds.Columns, ds.Rows); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	logger.Info("dataset loaded",
		zap.String("file", path),
		zap.Int("columns", len(ds.Columns)),
		zap.Int("rows", len(ds.Rows)))
	return nil
}

func newLogger(env string, verbose bool) *zap.Logger {
	logConfig := zap.NewProductionConfig()
	if env == "local" {
		logConfig = zap.NewDevelopmentConfig()
	}
	if verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

// writeResult renders the pipeline result to w. YAML output is produced
// from the JSON form so both formats share the same field names.
func writeResult(w io.Writer, result *models.PipelineResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		buf, err := json.Marshal(result)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(buf, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
