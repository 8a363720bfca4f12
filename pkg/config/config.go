package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the analytics engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, database passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Schema inference thresholds
	Schema SchemaConfig `yaml:"schema"`

	// Statistical analysis parameters
	Insights InsightConfig `yaml:"insights"`

	// Pipeline execution settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Backing store configuration
	Store StoreConfig `yaml:"store"`

	// LLM collaborator configuration (KPI proposal, narration, charts)
	AI AIConfig `yaml:"ai"`
}

// SchemaConfig holds the column classification thresholds. These were
// deliberately surfaced as configuration rather than hidden constants so
// tie-break behavior stays adjustable per deployment.
type SchemaConfig struct {
	// SampleSize is how many values per column are examined for type inference.
	SampleSize int `yaml:"sample_size" env:"SCHEMA_SAMPLE_SIZE" env-default:"1000"`
	// TypeThreshold is the fraction of sampled non-null values that must parse
	// as a datetime (or number) for the column to take that type.
	TypeThreshold float64 `yaml:"type_threshold" env:"SCHEMA_TYPE_THRESHOLD" env-default:"0.9"`
	// CategoricalRatio is the max distinct/total ratio for a categorical column.
	CategoricalRatio float64 `yaml:"categorical_ratio" env:"SCHEMA_CATEGORICAL_RATIO" env-default:"0.05"`
	// CategoricalCap is the absolute cardinality below which a column is
	// categorical regardless of ratio.
	CategoricalCap int `yaml:"categorical_cap" env:"SCHEMA_CATEGORICAL_CAP" env-default:"50"`
	// IdentifierUniqueRatio is the distinct/total ratio at or above which an
	// integer or text column is promoted to the identifier role.
	IdentifierUniqueRatio float64 `yaml:"identifier_unique_ratio" env:"SCHEMA_IDENTIFIER_UNIQUE_RATIO" env-default:"0.95"`
}

// InsightConfig holds the statistical analysis parameters.
type InsightConfig struct {
	// OutlierSigma is the z-score magnitude beyond which a row is flagged.
	OutlierSigma float64 `yaml:"outlier_sigma" env:"INSIGHT_OUTLIER_SIGMA" env-default:"3.0"`
	// TrendNoiseRatio scales the flat-slope threshold relative to the value range.
	TrendNoiseRatio float64 `yaml:"trend_noise_ratio" env:"INSIGHT_TREND_NOISE_RATIO" env-default:"0.01"`
	// CategoricalTopN is how many value counts are kept per dimension column.
	CategoricalTopN int `yaml:"categorical_top_n" env:"INSIGHT_CATEGORICAL_TOP_N" env-default:"5"`
	// ClusterCount is the fixed k for k-means, capped by distinct point count.
	ClusterCount int `yaml:"cluster_count" env:"INSIGHT_CLUSTER_COUNT" env-default:"3"`
	// ClusterMinRows is the minimum slice size before clustering is attempted.
	ClusterMinRows int `yaml:"cluster_min_rows" env:"INSIGHT_CLUSTER_MIN_ROWS" env-default:"10"`
	// KMeansMaxIterations bounds the k-means refinement loop.
	KMeansMaxIterations int `yaml:"kmeans_max_iterations" env:"INSIGHT_KMEANS_MAX_ITERATIONS" env-default:"25"`
}

// PipelineConfig holds per-run execution settings.
type PipelineConfig struct {
	// MaxConcurrent bounds how many KPIs are processed in parallel.
	MaxConcurrent int `yaml:"max_concurrent" env:"PIPELINE_MAX_CONCURRENT" env-default:"4"`
	// KPITimeoutSeconds bounds each KPI's plan/execute/analyze work.
	KPITimeoutSeconds int `yaml:"kpi_timeout_seconds" env:"PIPELINE_KPI_TIMEOUT_SECONDS" env-default:"30"`
	// RowLimit caps how many rows a single plan may retrieve.
	RowLimit int `yaml:"row_limit" env:"PIPELINE_ROW_LIMIT" env-default:"10000"`
}

// KPITimeout returns the per-KPI deadline as a duration.
func (c *PipelineConfig) KPITimeout() time.Duration {
	return time.Duration(c.KPITimeoutSeconds) * time.Second
}

// Supported store drivers.
const (
	StoreDriverSQLite    = "sqlite"
	StoreDriverPostgres  = "postgres"
	StoreDriverSQLServer = "mssql"
)

// StoreConfig selects and configures the backing tabular store.
type StoreConfig struct {
	// Driver is one of: sqlite, postgres, mssql.
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"sqlite"`
	// Table is the table the pipeline reads from.
	Table string `yaml:"table" env:"STORE_TABLE" env-default:"main_table"`

	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLServer SQLServerConfig `yaml:"sqlserver"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"glint"`
	Password string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"PGDATABASE" env-default:"glint"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env:"PGMAX_CONNS" env-default:"10"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// SQLServerConfig holds SQL Server connection settings.
type SQLServerConfig struct {
	Host     string `yaml:"host" env:"MSSQL_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"MSSQL_PORT" env-default:"1433"`
	User     string `yaml:"user" env:"MSSQL_USER" env-default:"sa"`
	Password string `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"MSSQL_DATABASE" env-default:"glint"`
}

// ConnectionString returns a SQL Server connection URL.
func (c *SQLServerConfig) ConnectionString() string {
	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Supported AI providers.
const (
	AIProviderNone      = "none"
	AIProviderOpenAI    = "openai"
	AIProviderAnthropic = "anthropic"
)

// AIConfig holds LLM collaborator settings. The core pipeline never requires
// an LLM; with Provider "none" the proposal/narration/chart services must be
// given specs directly or fall back to deterministic behavior.
type AIConfig struct {
	// Provider is one of: openai, anthropic, none.
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"none"`
	// Endpoint overrides the provider's default base URL (for compatible gateways).
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	// MaxTokens bounds each completion.
	MaxTokens int `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"2048"`
	// Temperature for completions; proposal parsing re-validates output anyway.
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.2"`
	// MaxRetries bounds transient-failure retries inside the collaborators.
	MaxRetries int `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"2"`
	// ProposalCount is how many KPIs the proposal service asks for.
	ProposalCount int `yaml:"proposal_count" env:"AI_PROPOSAL_COUNT" env-default:"5"`
}

// IsAvailable returns true if an LLM provider is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.Provider != "" && c.Provider != AIProviderNone && c.Model != ""
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD, MSSQL_PASSWORD,
// AI_API_KEY) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that thresholds are inside their meaningful ranges.
func (c *Config) Validate() error {
	if c.Schema.SampleSize < 1 {
		return fmt.Errorf("schema.sample_size must be at least 1, got %d", c.Schema.SampleSize)
	}
	if c.Schema.TypeThreshold <= 0 || c.Schema.TypeThreshold > 1 {
		return fmt.Errorf("schema.type_threshold must be in (0,1], got %g", c.Schema.TypeThreshold)
	}
	if c.Schema.CategoricalRatio <= 0 || c.Schema.CategoricalRatio > 1 {
		return fmt.Errorf("schema.categorical_ratio must be in (0,1], got %g", c.Schema.CategoricalRatio)
	}
	if c.Schema.CategoricalCap < 0 {
		return fmt.Errorf("schema.categorical_cap must not be negative, got %d", c.Schema.CategoricalCap)
	}
	if c.Schema.IdentifierUniqueRatio <= 0 || c.Schema.IdentifierUniqueRatio > 1 {
		return fmt.Errorf("schema.identifier_unique_ratio must be in (0,1], got %g", c.Schema.IdentifierUniqueRatio)
	}
	if c.Insights.OutlierSigma <= 0 {
		return fmt.Errorf("insights.outlier_sigma must be positive, got %g", c.Insights.OutlierSigma)
	}
	if c.Insights.ClusterCount < 1 {
		return fmt.Errorf("insights.cluster_count must be at least 1, got %d", c.Insights.ClusterCount)
	}
	if c.Insights.ClusterMinRows < 1 {
		return fmt.Errorf("insights.cluster_min_rows must be at least 1, got %d", c.Insights.ClusterMinRows)
	}
	if c.Pipeline.MaxConcurrent < 1 {
		return fmt.Errorf("pipeline.max_concurrent must be at least 1, got %d", c.Pipeline.MaxConcurrent)
	}
	switch c.Store.Driver {
	case StoreDriverSQLite, StoreDriverPostgres, StoreDriverSQLServer:
	default:
		return fmt.Errorf("store.driver must be sqlite, postgres or mssql, got %q", c.Store.Driver)
	}
	return nil
}

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether the process is inside a Docker container,
// detected by the /.dockerenv marker. The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps localhost addresses to host.docker.internal when
// running inside Docker, so a containerized run can still reach a store on
// the host machine. Any other host is returned unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
