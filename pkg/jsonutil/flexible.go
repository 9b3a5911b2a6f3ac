package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleInt64 parses a value that search-volume providers send as a JSON
// number, a whole float, or a numeric string. Returns (nil, nil) for null,
// absent, or empty-string values.
func FlexibleInt64(raw json.RawMessage) (*int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("value %v is not a whole number", f)
		}
		n = int64(f)
		return &n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as integer: %w", s, err)
		}
		return &parsed, nil
	}

	return nil, fmt.Errorf("value %s is not a number", string(raw))
}

// FlexibleFloat64 parses a value sent as a JSON number or a numeric string.
// Returns (nil, nil) for null, absent, or empty-string values.
func FlexibleFloat64(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as float: %w", s, err)
		}
		return &parsed, nil
	}

	return nil, fmt.Errorf("value %s is not a number", string(raw))
}
