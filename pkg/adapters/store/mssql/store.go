//go:build mssql || all_adapters

// Package mssql provides the SQL Server store adapter. It reads an
// existing table; the pipeline never writes through it.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/logging"
	"github.com/glint-analytics/glint-engine/pkg/retry"
)

// Store reads a SQL Server table.
type Store struct {
	db          *sql.DB
	schema      string
	table       string
	sampleLimit int
	logger      *zap.Logger
}

// Open connects to SQL Server and returns a store for the given table.
// The table may be schema-qualified ("analytics.sales" or
// "[analytics].[sales]"); the schema defaults to dbo. Transient
// connection failures are retried with backoff; queries themselves are
// never retried.
func Open(ctx context.Context, connStr, table string, sampleLimit int, logger *zap.Logger) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if sampleLimit < 1 {
		sampleLimit = 1000
	}

	log := logger.Named("mssql-store")

	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*sql.DB, error) {
		d, err := sql.Open("sqlserver", connStr)
		if err != nil {
			return nil, err
		}
		if err := d.PingContext(ctx); err != nil {
			d.Close()
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		log.Error("connection failed",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("connect to sql server: %w", err)
	}

	schema, bare := parseSchemaTable(table)

	log.Info("connected",
		zap.String("conn", logging.SanitizeConnectionString(connStr)),
		zap.String("schema", schema),
		zap.String("table", bare))

	return &Store{
		db:          db,
		schema:      schema,
		table:       bare,
		sampleLimit: sampleLimit,
		logger:      log,
	}, nil
}

// dialect renders T-SQL: bracket-quoted identifiers, @pN placeholders,
// TOP(n) instead of LIMIT.
var dialect = store.Dialect{
	QuoteIdent:  quoteName,
	Placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	UseTop:      true,
}

// namedArgs wraps positional args as @pN named parameters, which the
// sqlserver driver requires.
func namedArgs(args []any) []any {
	named := make([]any, len(args))
	for i, arg := range args {
		named[i] = sql.Named(fmt.Sprintf("p%d", i+1), arg)
	}
	return named
}

// Columns profiles every column of the store's table.
func (s *Store) Columns(ctx context.Context) ([]store.ColumnProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`,
		sql.Named("p1", s.schema), sql.Named("p2", s.table))
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
	qc := quoteName(name)
	qt := buildFullyQualifiedName(s.schema, s.table)

	var total, nonNull, distinct int
	counts := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s", qc, qc, qt)
	if err := s.db.QueryRowContext(ctx, counts).Scan(&total, &nonNull, &distinct); err != nil {
		return store.ColumnProfile{}, fmt.Errorf("profile column %s: %w", name, err)
	}

	samplesQuery := fmt.Sprintf(
		"SELECT TOP(%d) %s FROM %s WHERE %s IS NOT NULL", s.sampleLimit, qc, qt, qc)
	rows, err := s.db.QueryContext(ctx, samplesQuery)
	if err != nil {
		return store.ColumnProfile{}, fmt.Errorf("sample column %s: %w", name, err)
	}
	defer rows.Close()

	var samples []any
	for rows.Next() {
		var value any
		if err := rows.Scan(&value); err != nil {
			return store.ColumnProfile{}, fmt.Errorf("read sample for %s: %w", name, err)
		}
		samples = append(samples, normalizeValue(value, nativeType))
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

	rows, err := s.db.QueryContext(ctx, query, namedArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read result column types: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = normalizeValue(values[i], columnTypes[i].DatabaseTypeName())
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

// normalizeValue converts driver values to the types the pipeline
// expects. The sqlserver driver returns text columns as []byte.
func normalizeValue(v any, nativeType string) any {
	if b, ok := v.([]byte); ok && isStringType(nativeType) {
		return string(b)
	}
	return v
}

// Table returns the configured table name without schema qualification.
func (s *Store) Table() string {
	return s.table
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the store contract at compile time.
var _ store.Store = (*Store)(nil)
