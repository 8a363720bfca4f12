//go:build postgres || all_adapters

// Package postgres provides the PostgreSQL store adapter. It reads an
// existing table; the pipeline never writes through it.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/logging"
	"github.com/glint-analytics/glint-engine/pkg/retry"
)

// Store reads a PostgreSQL table.
type Store struct {
	pool        *pgxpool.Pool
	schema      string
	table       string
	sampleLimit int
	logger      *zap.Logger
}

// Open connects to PostgreSQL and returns a store for the given table.
// The table may be schema-qualified ("analytics.sales"); the schema
// defaults to public. Transient connection failures are retried with
// backoff; queries themselves are never retried.
func Open(ctx context.Context, connStr, table string, sampleLimit int, logger *zap.Logger) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if sampleLimit < 1 {
		sampleLimit = 1000
	}

	log := logger.Named("postgres-store")

	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*pgxpool.Pool, error) {
		p, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		log.Error("connection failed",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	schema, bare := parseSchemaTable(table)

	log.Info("connected",
		zap.String("conn", logging.SanitizeConnectionString(connStr)),
		zap.String("schema", schema),
		zap.String("table", bare))

	return &Store{
		pool:        pool,
		schema:      schema,
		table:       bare,
		sampleLimit: sampleLimit,
		logger:      log,
	}, nil
}

// parseSchemaTable splits an optionally schema-qualified table name.
// Defaults to the public schema.
func parseSchemaTable(name string) (string, string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "public", name
}

// dialect renders PostgreSQL SQL: sanitized double-quoted identifiers,
// $n placeholders, trailing LIMIT.
var dialect = store.Dialect{
	QuoteIdent:  quoteIdent,
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// qualifiedTable returns the schema-qualified quoted table name.
func (s *Store) qualifiedTable() string {
	return pgx.Identifier{s.schema, s.table}.Sanitize()
}

// Columns profiles every column of the store's table.
func (s *Store) Columns(ctx context.Context) ([]store.ColumnProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`,
		s.schema, s.table)
	if err != nil {
		return nil, fmt.Errorf("read schema for %s: %w", s.table, err)
	}
	defer rows.Close()

	type colInfo struct {
		name       string
		nativeType string
	}
	var cols []colInfo
	for rows.Next() {
		var ci colInfo
		if err := rows.Scan(&ci.name, &ci.nativeType); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		cols = append(cols, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column info: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s.%s has no columns", s.schema, s.table)
	}

	profiles := make([]store.ColumnProfile, 0, len(cols))
	for _, ci := range cols {
		profile, err := s.profileColumn(ctx, ci.name, ci.nativeType)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (s *Store) profileColumn(ctx context.Context, name, nativeType string) (store.ColumnProfile, error) {
	qc := quoteIdent(name)
	qt := s.qualifiedTable()

	var total, nonNull, distinct int
	counts := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s", qc, qc, qt)
	if err := s.pool.QueryRow(ctx, counts).Scan(&total, &nonNull, &distinct); err != nil {
		return store.ColumnProfile{}, fmt.Errorf("profile column %s: %w", name, err)
	}

	samplesQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NOT NULL LIMIT %d", qc, qt, qc, s.sampleLimit)
	rows, err := s.pool.Query(ctx, samplesQuery)
	if err != nil {
		return store.ColumnProfile{}, fmt.Errorf("sample column %s: %w", name, err)
	}
	defer rows.Close()

	var samples []any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return store.ColumnProfile{}, fmt.Errorf("read sample for %s: %w", name, err)
		}
		samples = append(samples, values[0])
	}
	if err := rows.Err(); err != nil {
		return store.ColumnProfile{}, fmt.Errorf("iterate samples for %s: %w", name, err)
	}

	return store.ColumnProfile{
		Name:          name,
		NativeType:    nativeType,
		TotalRows:     total,
		NullCount:     total - nonNull,
		DistinctCount: distinct,
		Samples:       samples,
	}, nil
}

// Query executes a structured request and returns the matching rows.
func (s *Store) Query(ctx context.Context, req *store.QueryRequest) (*store.QueryResult, error) {
	query, args, err := store.BuildSelect(req, dialect)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("executing query",
		zap.String("query", logging.SanitizeQuery(query)),
		zap.Int("args", len(args)))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &store.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// Table returns the configured table name without schema qualification.
func (s *Store) Table() string {
	return s.table
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ensure Store implements the store contract at compile time.
var _ store.Store = (*Store)(nil)
