// Package sqlite provides the embedded in-memory store adapter. The runner
// seeds it from ingested data, after which the connection is switched to
// query_only and the pipeline reads from it like any other store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
)

// Store is an in-memory SQLite dataset.
type Store struct {
	db          *sql.DB
	table       string
	sampleLimit int
	loaded      bool
	logger      *zap.Logger
}

// New opens an empty in-memory store. Call LoadTable before querying.
func New(table string, sampleLimit int, logger *zap.Logger) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if sampleLimit < 1 {
		sampleLimit = 1000
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory sqlite database exists per connection; the pool must
	// stay at one connection or queries would see an empty database.
	db.SetMaxOpenConns(1)

	return &Store{
		db:          db,
		table:       table,
		sampleLimit: sampleLimit,
		logger:      logger.Named("sqlite-store"),
	}, nil
}

// dialect renders sqlite SQL: double-quoted identifiers, ? placeholders,
// trailing LIMIT.
var dialect = store.Dialect{
	QuoteIdent:  quoteIdent,
	Placeholder: func(int) string { return "?" },
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// kindSQL maps dialect-neutral column kinds to sqlite column types.
// Timestamps use the TIMESTAMP declared type so the driver converts
// values back to time.Time on scan.
var kindSQL = map[store.ValueKind]string{
	store.KindText:      "TEXT",
	store.KindInteger:   "INTEGER",
	store.KindReal:      "REAL",
	store.KindBool:      "INTEGER",
	store.KindTimestamp: "TIMESTAMP",
}

// LoadTable creates the table and inserts all rows, then switches the
// connection to query_only so later writes fail.
func (s *Store) LoadTable(ctx context.Context, columns []store.ColumnDef, rows [][]any) error {
	if s.loaded {
		return fmt.Errorf("table %s already loaded", s.table)
	}
	if len(columns) == 0 {
		return fmt.Errorf("no columns to load")
	}

	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE ")
	ddl.WriteString(quoteIdent(s.table))
	ddl.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			ddl.WriteString(", ")
		}
		sqlType, ok := kindSQL[col.Kind]
		if !ok {
			return fmt.Errorf("column %s has unknown kind %q", col.Name, col.Kind)
		}
		ddl.WriteString(quoteIdent(col.Name))
		ddl.WriteString(" ")
		ddl.WriteString(sqlType)
	}
	ddl.WriteString(")")

	if _, err := s.db.ExecContext(ctx, ddl.String()); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	if len(rows) > 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin load transaction: %w", err)
		}
		defer tx.Rollback()

		placeholders := strings.Repeat("?, ", len(columns))
		insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)",
			quoteIdent(s.table), strings.TrimSuffix(placeholders, ", "))

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range rows {
			if len(row) != len(columns) {
				return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit load transaction: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return fmt.Errorf("set query_only: %w", err)
	}

	s.loaded = true
	s.logger.Info("table loaded",
		zap.String("table", s.table),
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(rows)))

	return nil
}

// Columns profiles every column of the loaded table.
func (s *Store) Columns(ctx context.Context) ([]store.ColumnProfile, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(s.table)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", s.table, err)
	}
	defer rows.Close()

	type colInfo struct {
		name       string
		nativeType string
	}
	var cols []colInfo
	for rows.Next() {
		var (
			cid        int
			name       string
			nativeType string
			notNull    int
			dflt       sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &nativeType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols = append(cols, colInfo{name: name, nativeType: nativeType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s has no columns", s.table)
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
	qt := quoteIdent(s.table)

	var total, nonNull, distinct int
	counts := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s", qc, qc, qt)
	if err := s.db.QueryRowContext(ctx, counts).Scan(&total, &nonNull, &distinct); err != nil {
		return store.ColumnProfile{}, fmt.Errorf("profile column %s: %w", name, err)
	}

	samplesQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NOT NULL LIMIT %d", qc, qt, qc, s.sampleLimit)
	rows, err := s.db.QueryContext(ctx, samplesQuery)
	if err != nil {
		return store.ColumnProfile{}, fmt.Errorf("sample column %s: %w", name, err)
	}
	defer rows.Close()

	var samples []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return store.ColumnProfile{}, fmt.Errorf("scan sample for %s: %w", name, err)
		}
		samples = append(samples, normalizeValue(v))
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

// Query executes a structured request against the loaded table.
func (s *Store) Query(ctx context.Context, req *store.QueryRequest) (*store.QueryResult, error) {
	query, args, err := store.BuildSelect(req, dialect)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = normalizeValue(values[i])
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

// normalizeValue converts driver-specific values to plain Go types.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Table returns the table this store reads from.
func (s *Store) Table() string {
	return s.table
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the store contracts at compile time.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Loader = (*Store)(nil)
)
