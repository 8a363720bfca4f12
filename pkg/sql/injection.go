package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheck describes a filter value that tripped the SQLi detector.
type InjectionCheck struct {
	IsSQLi      bool   // True if a SQL injection pattern was detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Column      string // Filter column whose value failed the check
	Value       any    // The value that was checked
}

// CheckFilterValue runs libinjection over one filter value. Only string
// values are checked; numbers, booleans and nil cannot carry an injection
// pattern and always pass.
//
// Returns nil when the value is clean.
func CheckFilterValue(column string, value any) *InjectionCheck {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionCheck{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Column:      column,
		Value:       value,
	}
}

// CheckFilterValues checks a scalar or list filter value, flattening one
// level of []any so the elements of an "in" predicate are each inspected.
func CheckFilterValues(column string, value any) []*InjectionCheck {
	var checks []*InjectionCheck
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if c := CheckFilterValue(column, item); c != nil {
				checks = append(checks, c)
			}
		}
	case []string:
		for _, item := range v {
			if c := CheckFilterValue(column, item); c != nil {
				checks = append(checks, c)
			}
		}
	default:
		if c := CheckFilterValue(column, value); c != nil {
			checks = append(checks, c)
		}
	}
	return checks
}
