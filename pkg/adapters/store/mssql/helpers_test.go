//go:build mssql || all_adapters

package mssql

import "testing"

func TestParseSchemaTable(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSchema string
		wantTable  string
	}{
		{"bare table", "sales", "dbo", "sales"},
		{"schema qualified", "analytics.sales", "analytics", "sales"},
		{"bracketed", "[analytics].[sales]", "analytics", "sales"},
		{"bracketed bare", "[sales]", "dbo", "sales"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, table := parseSchemaTable(tt.input)
			if schema != tt.wantSchema || table != tt.wantTable {
				t.Errorf("parseSchemaTable(%q) = (%q, %q), want (%q, %q)",
					tt.input, schema, table, tt.wantSchema, tt.wantTable)
			}
		})
	}
}

func TestQuoteName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"amount", "[amount]"},
		{"order id", "[order id]"},
		{"we]ird", "[we]]ird]"},
	}

	for _, tt := range tests {
		if got := quoteName(tt.input); got != tt.want {
			t.Errorf("quoteName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildFullyQualifiedName(t *testing.T) {
	got := buildFullyQualifiedName("analytics", "sales")
	want := "[analytics].[sales]"
	if got != want {
		t.Errorf("buildFullyQualifiedName = %q, want %q", got, want)
	}
}

func TestIsStringType(t *testing.T) {
	for _, typ := range []string{"VARCHAR", "NVARCHAR", "nchar", "TEXT"} {
		if !isStringType(typ) {
			t.Errorf("isStringType(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{"INT", "FLOAT", "DATETIME2", "BIT"} {
		if isStringType(typ) {
			t.Errorf("isStringType(%q) = true, want false", typ)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	if got := normalizeValue([]byte("west"), "NVARCHAR"); got != "west" {
		t.Errorf("normalizeValue text = %v, want west", got)
	}
	if _, ok := normalizeValue([]byte{0x01}, "VARBINARY").([]byte); !ok {
		t.Error("normalizeValue should leave binary columns as []byte")
	}
	if got := normalizeValue(int64(7), "BIGINT"); got != int64(7) {
		t.Errorf("normalizeValue int = %v, want 7", got)
	}
}
