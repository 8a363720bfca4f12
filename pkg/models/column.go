package models

import (
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
)

// ColumnType is the inferred storage-level type of a column.
type ColumnType string

const (
	ColumnTypeNumeric     ColumnType = "numeric"
	ColumnTypeCategorical ColumnType = "categorical"
	ColumnTypeDatetime    ColumnType = "datetime"
	ColumnTypeText        ColumnType = "text"
)

// ColumnRole is the semantic role a column plays in analysis.
// Identifiers are excluded from metric/dimension eligibility downstream.
type ColumnRole string

const (
	RoleMetric     ColumnRole = "metric"
	RoleDimension  ColumnRole = "dimension"
	RoleIdentifier ColumnRole = "identifier"
)

// ColumnMetadata is the profile of a single source column. Every column in
// the dataset has exactly one entry; role assignment is deterministic given
// type, cardinality, and name.
type ColumnMetadata struct {
	Name         string     `json:"name"`
	InferredType ColumnType `json:"inferred_type"`
	Role         ColumnRole `json:"role"`
	NullFraction float64    `json:"null_fraction"` // 0.0 - 1.0
	Cardinality  int        `json:"cardinality"`   // distinct non-null values
	RowCount     int        `json:"row_count"`
	SampleValues []string   `json:"sample_values,omitempty"`
	EntityName   string     `json:"entity_name,omitempty"` // human-readable label, e.g. customer_id -> "customer"
}

// IsNumeric reports whether the column carries numeric values.
func (c ColumnMetadata) IsNumeric() bool {
	return c.InferredType == ColumnTypeNumeric
}

// IsDatetime reports whether the column carries timestamps.
func (c ColumnMetadata) IsDatetime() bool {
	return c.InferredType == ColumnTypeDatetime
}

// DisplayName derives a human-facing label from the column name.
// Identifier suffixes are stripped and the remaining entity word is
// singularized, so "customer_id" becomes "customer".
func DisplayName(column string) string {
	name := strings.ToLower(column)
	for _, suffix := range []string{"_id", "_key", "_uuid"} {
		name = strings.TrimSuffix(name, suffix)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return column
	}
	words := strings.Fields(name)
	words[len(words)-1] = inflection.Singular(words[len(words)-1])
	return strings.Join(words, " ")
}

// Schema is the ordered set of column profiles for one dataset, computed
// once per dataset load and treated as immutable for the run's lifetime.
type Schema struct {
	Table   string           `json:"table"`
	Columns []ColumnMetadata `json:"columns"`
}

// Column returns the metadata for the named column, or nil when absent.
func (s *Schema) Column(name string) *ColumnMetadata {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the named column exists in the schema.
func (s *Schema) HasColumn(name string) bool {
	return s.Column(name) != nil
}

// ColumnNames returns the column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// MetricColumns returns the columns assigned the metric role, in schema order.
func (s *Schema) MetricColumns() []ColumnMetadata {
	return s.columnsByRole(RoleMetric)
}

// DimensionColumns returns the columns assigned the dimension role.
func (s *Schema) DimensionColumns() []ColumnMetadata {
	return s.columnsByRole(RoleDimension)
}

// IdentifierColumns returns the columns assigned the identifier role.
func (s *Schema) IdentifierColumns() []ColumnMetadata {
	return s.columnsByRole(RoleIdentifier)
}

func (s *Schema) columnsByRole(role ColumnRole) []ColumnMetadata {
	var out []ColumnMetadata
	for _, c := range s.Columns {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// DatetimeColumns returns the datetime-typed columns in schema order.
func (s *Schema) DatetimeColumns() []ColumnMetadata {
	var out []ColumnMetadata
	for _, c := range s.Columns {
		if c.InferredType == ColumnTypeDatetime {
			out = append(out, c)
		}
	}
	return out
}

// SortedNames returns the column names sorted alphabetically. Used where a
// stable presentation order is needed independent of source order.
func (s *Schema) SortedNames() []string {
	names := s.ColumnNames()
	sort.Strings(names)
	return names
}
