//go:build integration && (postgres || all_adapters)

package postgres

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
	"github.com/glint-analytics/glint-engine/pkg/models"
	"github.com/glint-analytics/glint-engine/pkg/testhelpers"
)

// setupStoreTest opens a Store against the shared test container.
func setupStoreTest(t *testing.T) *Store {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Open(ctx, testDB.ConnStr, testhelpers.SalesTable, 100, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestStore_Columns(t *testing.T) {
	s := setupStoreTest(t)
	ctx := context.Background()

	profiles, err := s.Columns(ctx)
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}

	if len(profiles) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(profiles))
	}

	// information_schema orders by ordinal position
	wantOrder := []string{"order_id", "region", "amount", "sold_at"}
	for i, want := range wantOrder {
		if profiles[i].Name != want {
			t.Errorf("column %d = %q, want %q", i, profiles[i].Name, want)
		}
	}

	byName := make(map[string]store.ColumnProfile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}

	amount := byName["amount"]
	if amount.NativeType != "double precision" {
		t.Errorf("amount native type = %q, want double precision", amount.NativeType)
	}
	if amount.TotalRows != 6 {
		t.Errorf("amount total rows = %d, want 6", amount.TotalRows)
	}
	if amount.NullCount != 1 {
		t.Errorf("amount null count = %d, want 1", amount.NullCount)
	}
	if amount.DistinctCount != 5 {
		t.Errorf("amount distinct count = %d, want 5", amount.DistinctCount)
	}
	if len(amount.Samples) != 5 {
		t.Errorf("amount samples = %d, want 5", len(amount.Samples))
	}

	region := byName["region"]
	if region.NullCount != 0 {
		t.Errorf("region null count = %d, want 0", region.NullCount)
	}
	if region.DistinctCount != 3 {
		t.Errorf("region distinct count = %d, want 3", region.DistinctCount)
	}
}

func TestStore_Query_FilterOrderLimit(t *testing.T) {
	s := setupStoreTest(t)
	ctx := context.Background()

	result, err := s.Query(ctx, &store.QueryRequest{
		Table:   s.Table(),
		Columns: []string{"order_id", "amount"},
		Filters: []models.Filter{
			{Column: "region", Op: models.FilterOpEq, Value: "west"},
		},
		OrderBy: []models.OrderBy{
			{Column: "amount", Direction: models.SortDesc},
		},
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", result.RowCount)
	}
	if result.Rows[0]["order_id"] != int64(6) {
		t.Errorf("expected order 6 first (amount 150), got %v", result.Rows[0]["order_id"])
	}
	if result.Rows[1]["order_id"] != int64(1) {
		t.Errorf("expected order 1 second (amount 120.5), got %v", result.Rows[1]["order_id"])
	}
}

func TestStore_Query_InFilter(t *testing.T) {
	s := setupStoreTest(t)
	ctx := context.Background()

	result, err := s.Query(ctx, &store.QueryRequest{
		Table:   s.Table(),
		Columns: []string{"order_id", "region"},
		Filters: []models.Filter{
			{Column: "region", Op: models.FilterOpIn, Value: []string{"east", "south"}},
		},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 3 {
		t.Errorf("expected 3 rows for east+south, got %d", result.RowCount)
	}
	for _, row := range result.Rows {
		region := row["region"]
		if region != "east" && region != "south" {
			t.Errorf("unexpected region %v", region)
		}
	}
}

func TestStore_Query_TimestampRoundTrip(t *testing.T) {
	s := setupStoreTest(t)
	ctx := context.Background()

	result, err := s.Query(ctx, &store.QueryRequest{
		Table:   s.Table(),
		Columns: []string{"sold_at"},
		Filters: []models.Filter{
			{Column: "order_id", Op: models.FilterOpEq, Value: int64(1)},
		},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", result.RowCount)
	}

	ts, ok := result.Rows[0]["sold_at"].(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", result.Rows[0]["sold_at"])
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("sold_at = %v, want %v", ts, want)
	}
}

func TestStore_Query_NoResults(t *testing.T) {
	s := setupStoreTest(t)
	ctx := context.Background()

	result, err := s.Query(ctx, &store.QueryRequest{
		Table:   s.Table(),
		Columns: []string{"order_id"},
		Filters: []models.Filter{
			{Column: "region", Op: models.FilterOpEq, Value: "north"},
		},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.RowCount != 0 {
		t.Errorf("expected 0 rows, got %d", result.RowCount)
	}
	if len(result.Rows) != 0 {
		t.Errorf("expected empty Rows slice, got %d", len(result.Rows))
	}
	// Columns should still be populated even with no results
	if len(result.Columns) == 0 {
		t.Error("expected columns even with no results")
	}
}

func TestStore_Query_ContextCancellation(t *testing.T) {
	s := setupStoreTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := s.Query(ctx, &store.QueryRequest{
		Table:   s.Table(),
		Columns: []string{"order_id"},
	})
	if err == nil {
		t.Error("expected error when context is cancelled")
	}
}

func TestStore_Table(t *testing.T) {
	s := setupStoreTest(t)

	if s.Table() != testhelpers.SalesTable {
		t.Errorf("Table() = %q, want %q", s.Table(), testhelpers.SalesTable)
	}
}
