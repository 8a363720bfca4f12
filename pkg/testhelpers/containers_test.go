//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestGetTestDB_Connection(t *testing.T) {
	testDB := GetTestDB(t)

	ctx := context.Background()

	// Verify the seeded fixture is the only table in the public schema.
	var tableCount int
	err := testDB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public'").
		Scan(&tableCount)
	if err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}

	if tableCount != 1 {
		t.Errorf("expected 1 table in test schema, got %d", tableCount)
	}
}

func TestGetTestDB_SalesFixture(t *testing.T) {
	testDB := GetTestDB(t)

	ctx := context.Background()

	var rowCount int
	err := testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+SalesTable).Scan(&rowCount)
	if err != nil {
		t.Fatalf("failed to count %s rows: %v", SalesTable, err)
	}
	if rowCount != 6 {
		t.Errorf("%s: expected 6 rows, got %d", SalesTable, rowCount)
	}

	// The fixture carries one NULL amount and one NULL sold_at so
	// profiling tests see real null counts.
	var nullAmounts, nullDates int
	err = testDB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FILTER (WHERE amount IS NULL), COUNT(*) FILTER (WHERE sold_at IS NULL) FROM "+SalesTable).
		Scan(&nullAmounts, &nullDates)
	if err != nil {
		t.Fatalf("failed to count nulls: %v", err)
	}
	if nullAmounts != 1 {
		t.Errorf("expected 1 NULL amount, got %d", nullAmounts)
	}
	if nullDates != 1 {
		t.Errorf("expected 1 NULL sold_at, got %d", nullDates)
	}
}

// GetTestDB must hand every caller the same container.
func TestGetTestDB_Shared(t *testing.T) {
	first := GetTestDB(t)
	second := GetTestDB(t)

	if first != second {
		t.Error("expected the same shared TestDB instance")
	}
}
