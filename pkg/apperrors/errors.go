package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDataset       = errors.New("dataset has no rows")
	ErrNoColumns          = errors.New("dataset has no columns")
	ErrUnsupportedDriver  = errors.New("unsupported store driver")
	ErrNoProviderConfig   = errors.New("no LLM provider configured")
	ErrEmptyLLMResponse   = errors.New("empty LLM response")
	ErrNoValidKPIProposed = errors.New("no valid KPI could be proposed")
)

// SchemaError reports a dataset that cannot be profiled at all, such as a
// table with zero rows or zero columns. Data-quality issues inside a column
// never produce a SchemaError; they only influence classification.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema analysis failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// InvalidSpecError rejects a KPI spec before planning: a required field is
// missing from the schema, an aggregation is incompatible with a field's
// inferred type, or a filter references an unknown column.
type InvalidSpecError struct {
	KPIID  string
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid KPI spec %q: field %q: %s", e.KPIID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid KPI spec %q: %s", e.KPIID, e.Reason)
}

// ExecutionError wraps a store-level failure while executing a query plan.
// An empty result is not an execution error.
type ExecutionError struct {
	KPIID string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("plan execution failed for KPI %q: %v", e.KPIID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsInvalidSpec reports whether err is (or wraps) an InvalidSpecError.
func IsInvalidSpec(err error) bool {
	var target *InvalidSpecError
	return errors.As(err, &target)
}

// IsExecution reports whether err is (or wraps) an ExecutionError.
func IsExecution(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}

// IsSchema reports whether err is (or wraps) a SchemaError.
func IsSchema(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}
