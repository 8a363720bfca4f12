package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
)

func TestReadCSV_TypedColumns(t *testing.T) {
	input := strings.Join([]string{
		"order_id,region,amount,active,sold_at",
		"1,west,120.5,true,2025-01-01",
		"2,east,80,false,2025-01-02",
		"3,west,,true,",
	}, "\n")

	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	wantKinds := []store.ValueKind{
		store.KindInteger,
		store.KindText,
		store.KindReal,
		store.KindBool,
		store.KindTimestamp,
	}
	if len(ds.Columns) != len(wantKinds) {
		t.Fatalf("expected %d columns, got %d", len(wantKinds), len(ds.Columns))
	}
	for i, want := range wantKinds {
		if ds.Columns[i].Kind != want {
			t.Errorf("column %q kind = %q, want %q", ds.Columns[i].Name, ds.Columns[i].Kind, want)
		}
	}

	if len(ds.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ds.Rows))
	}

	row := ds.Rows[0]
	if row[0] != int64(1) {
		t.Errorf("order_id = %v (%T), want int64 1", row[0], row[0])
	}
	if row[1] != "west" {
		t.Errorf("region = %v, want west", row[1])
	}
	if row[2] != 120.5 {
		t.Errorf("amount = %v, want 120.5", row[2])
	}
	if row[3] != true {
		t.Errorf("active = %v, want true", row[3])
	}
	ts, ok := row[4].(time.Time)
	if !ok {
		t.Fatalf("sold_at type = %T, want time.Time", row[4])
	}
	if want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !ts.Equal(want) {
		t.Errorf("sold_at = %v, want %v", ts, want)
	}
}

func TestReadCSV_EmptyCellsAreNil(t *testing.T) {
	input := "a,b\n1,\n,x\n"

	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if ds.Rows[0][1] != nil {
		t.Errorf("empty text cell = %v, want nil", ds.Rows[0][1])
	}
	if ds.Rows[1][0] != nil {
		t.Errorf("empty integer cell = %v, want nil", ds.Rows[1][0])
	}
}

func TestReadCSV_MixedColumnFallsBackToText(t *testing.T) {
	input := "value\n1\n2\nnot-a-number\n"

	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if ds.Columns[0].Kind != store.KindText {
		t.Errorf("mixed column kind = %q, want text", ds.Columns[0].Kind)
	}
	if ds.Rows[0][0] != "1" {
		t.Errorf("cell = %v, want string \"1\"", ds.Rows[0][0])
	}
}

func TestReadCSV_YearColumnStaysInteger(t *testing.T) {
	input := "year\n2023\n2024\n2025\n"

	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if ds.Columns[0].Kind != store.KindInteger {
		t.Errorf("year column kind = %q, want integer", ds.Columns[0].Kind)
	}
}

func TestReadCSV_ZeroOneColumnStaysInteger(t *testing.T) {
	input := "flag\n0\n1\n1\n"

	ds, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if ds.Columns[0].Kind != store.KindInteger {
		t.Errorf("0/1 column kind = %q, want integer", ds.Columns[0].Kind)
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("a,b,c\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(ds.Columns) != 3 {
		t.Errorf("expected 3 columns, got %d", len(ds.Columns))
	}
	if len(ds.Rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(ds.Rows))
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"empty header name", "a,,c\n1,2,3\n"},
		{"duplicate header", "a,b,a\n1,2,3\n"},
		{"ragged row", "a,b\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	content := "id,amount\n1,10\n2,20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	ds, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("ReadCSVFile failed: %v", err)
	}
	if len(ds.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(ds.Rows))
	}

	if _, err := ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
