// Package ingest parses tabular files into typed column definitions and
// rows for seeding a store. It runs on the runner side only; the pipeline
// core never sees a file, just the store built from one.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glint-analytics/glint-engine/pkg/adapters/store"
)

// Dataset is the parsed content of one tabular file. Rows are typed per
// column; empty cells are nil.
type Dataset struct {
	Columns []store.ColumnDef
	Rows    [][]any
}

// timeLayouts are the timestamp formats ingestion recognizes, tried in
// order. Plain years and epoch numbers land in integer columns instead.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ReadCSVFile parses the CSV file at path.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV content. The first record is the header; every header
// cell must be a unique, non-empty column name. Column types are inferred
// from the data: a column is integer, real, boolean or timestamp only when
// every non-empty cell parses as that type, otherwise it stays text.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	seen := make(map[string]struct{}, len(header))
	names := make([]string, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			return nil, fmt.Errorf("header column %d has an empty name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate header column %q", name)
		}
		seen[name] = struct{}{}
		names[i] = name
	}

	data := records[1:]

	columns := make([]store.ColumnDef, len(names))
	for i, name := range names {
		columns[i] = store.ColumnDef{
			Name: name,
			Kind: inferKind(data, i),
		}
	}

	rows := make([][]any, len(data))
	for r, record := range data {
		row := make([]any, len(columns))
		for c := range columns {
			value, err := convertCell(record[c], columns[c].Kind)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r+1, columns[c].Name, err)
			}
			row[c] = value
		}
		rows[r] = row
	}

	return &Dataset{Columns: columns, Rows: rows}, nil
}

// inferKind classifies one column over all rows. Checks run strictest
// first so "2024" stays an integer and "1"/"0" columns stay integer
// rather than boolean.
func inferKind(data [][]string, col int) store.ValueKind {
	sawValue := false
	isInt := true
	isReal := true
	isBool := true
	isTime := true

	for _, record := range data {
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			continue
		}
		sawValue = true

		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isReal {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isReal = false
			}
		}
		if isBool && !isBoolLiteral(cell) {
			isBool = false
		}
		if isTime {
			if _, ok := parseTime(cell); !ok {
				isTime = false
			}
		}
	}

	if !sawValue {
		return store.KindText
	}
	switch {
	case isInt:
		return store.KindInteger
	case isReal:
		return store.KindReal
	case isBool:
		return store.KindBool
	case isTime:
		return store.KindTimestamp
	default:
		return store.KindText
	}
}

// convertCell parses one cell into the column's inferred type. Empty
// cells become nil.
func convertCell(cell string, kind store.ValueKind) (any, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}

	switch kind {
	case store.KindInteger:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", cell, err)
		}
		return n, nil
	case store.KindReal:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", cell, err)
		}
		return f, nil
	case store.KindBool:
		return strings.EqualFold(cell, "true"), nil
	case store.KindTimestamp:
		t, ok := parseTime(cell)
		if !ok {
			return nil, fmt.Errorf("parse timestamp %q", cell)
		}
		return t, nil
	default:
		return cell, nil
	}
}

func isBoolLiteral(cell string) bool {
	return strings.EqualFold(cell, "true") || strings.EqualFold(cell, "false")
}

func parseTime(cell string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
