// Package store defines the read-only tabular store contract the analysis
// pipeline runs against, plus the structured query request adapters render
// into dialect SQL. Adapters register themselves via init() so binaries only
// link the drivers they are built with.
package store

import (
	"context"

	"github.com/glint-analytics/glint-engine/pkg/models"
)

// ValueKind is the dialect-neutral type used when seeding a store from
// ingested data.
type ValueKind string

const (
	KindText      ValueKind = "text"
	KindInteger   ValueKind = "integer"
	KindReal      ValueKind = "real"
	KindBool      ValueKind = "bool"
	KindTimestamp ValueKind = "timestamp"
)

// ColumnDef names and types one column for table loading.
type ColumnDef struct {
	Name string
	Kind ValueKind
}

// ColumnProfile describes one column as reported by the backing store,
// with the sampled values and counts schema inference needs.
type ColumnProfile struct {
	Name          string `json:"name"`
	NativeType    string `json:"native_type"` // store-declared type, e.g. "TEXT", "INTEGER"
	TotalRows     int    `json:"total_rows"`
	NullCount     int    `json:"null_count"`
	DistinctCount int    `json:"distinct_count"` // distinct non-null values
	Samples       []any  `json:"samples"`        // up to the adapter's sample limit, non-null
}

// QueryRequest is a structured, dialect-neutral description of a slice read.
// Adapters render it into SQL with proper identifier quoting and bound
// parameters; callers never pass SQL text.
type QueryRequest struct {
	Table   string
	Columns []string
	Filters []models.Filter
	OrderBy []models.OrderBy
	Limit   int
}

// QueryResult contains the rows returned for a QueryRequest.
type QueryResult struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// Store is the pipeline's view of a tabular dataset. Implementations are
// read-only from the pipeline's perspective: nothing in this interface can
// mutate the backing data.
type Store interface {
	// Columns profiles every column of the store's table.
	Columns(ctx context.Context) ([]ColumnProfile, error)

	// Query executes a structured request and returns the matching rows.
	Query(ctx context.Context, req *QueryRequest) (*QueryResult, error)

	// Table returns the table this store reads from.
	Table() string

	// Close releases the underlying connection.
	Close() error
}

// Loader is implemented by stores that can be seeded from ingested data
// (the embedded sqlite adapter). Server-backed adapters read existing
// tables and do not implement it.
type Loader interface {
	// LoadTable creates the store's table with the given columns and inserts
	// all rows. Callable once; afterwards the store is read-only.
	LoadTable(ctx context.Context, columns []ColumnDef, rows [][]any) error
}
