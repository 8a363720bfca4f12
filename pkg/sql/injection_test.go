package sql

import (
	"testing"
)

func TestCheckFilterValue(t *testing.T) {
	tests := []struct {
		name            string
		column          string
		value           any
		expectInjection bool
	}{
		{
			name:            "clean id",
			column:          "customer_id",
			value:           "12345",
			expectInjection: false,
		},
		{
			name:            "clean category",
			column:          "region",
			value:           "north-west",
			expectInjection: false,
		},
		{
			name:            "clean date string",
			column:          "order_date",
			value:           "2024-06-01",
			expectInjection: false,
		},
		{
			name:            "classic quoted injection",
			column:          "region",
			value:           "' OR '1'='1",
			expectInjection: true,
		},
		{
			name:            "stacked statement",
			column:          "status",
			value:           "x'; DROP TABLE main_table--",
			expectInjection: true,
		},
		{
			name:            "union probe",
			column:          "name",
			value:           "1 UNION SELECT password FROM users",
			expectInjection: true,
		},
		{
			name:            "non-string skipped",
			column:          "amount",
			value:           42,
			expectInjection: false,
		},
		{
			name:            "nil skipped",
			column:          "amount",
			value:           nil,
			expectInjection: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckFilterValue(tt.column, tt.value)
			if tt.expectInjection {
				if result == nil {
					t.Fatal("expected injection to be detected")
				}
				if !result.IsSQLi {
					t.Error("IsSQLi = false, want true")
				}
				if result.Column != tt.column {
					t.Errorf("Column = %q, want %q", result.Column, tt.column)
				}
				if result.Fingerprint == "" {
					t.Error("expected a fingerprint")
				}
			} else if result != nil {
				t.Errorf("unexpected detection: %+v", result)
			}
		})
	}
}

func TestCheckFilterValuesFlattensLists(t *testing.T) {
	checks := CheckFilterValues("status", []any{"paid", "' OR '1'='1", "open"})
	if len(checks) != 1 {
		t.Fatalf("got %d detections, want 1", len(checks))
	}
	if checks[0].Value != "' OR '1'='1" {
		t.Errorf("flagged value = %v", checks[0].Value)
	}

	if checks := CheckFilterValues("status", []string{"a", "b"}); checks != nil {
		t.Errorf("unexpected detections: %v", checks)
	}
}
