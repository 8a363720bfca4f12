package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases
// where LLMs return numbers or booleans instead of strings. Returns empty
// string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleStringList is a []string that also unmarshals from the shapes LLMs
// actually produce for field lists: a JSON array of strings (or numbers), a
// single string, or a comma-separated string.
type FlexibleStringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *FlexibleStringList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	// Array form: each element converted through FlexibleStringValue.
	var rawItems []json.RawMessage
	if err := json.Unmarshal(data, &rawItems); err == nil {
		out := make([]string, 0, len(rawItems))
		for _, item := range rawItems {
			if s := strings.TrimSpace(FlexibleStringValue(item)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	}

	// Scalar form: a single string, possibly comma-separated.
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitAndTrim(single)
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into a string list", string(data))
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
