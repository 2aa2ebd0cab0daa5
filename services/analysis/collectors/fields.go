// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package collectors

import (
	"strconv"
	"strings"
)

// Helpers for the undocumented upstream feeds. Field names and value types
// drift between providers, so rows are decoded as loose maps and normalized
// here.

// firstString returns the first non-empty string among the named keys.
func firstString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := row[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// asFloat coerces JSON numbers and numeric strings.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// asSlice wraps a scalar into a one-element slice so callers can iterate
// either shape.
func asSlice(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	return []any{v}
}

// listUnder returns the first list value found under the named keys, or
// the value itself when the payload is a bare list.
func listUnder(payload any, keys ...string) []map[string]any {
	if rows, ok := toRowList(payload); ok {
		return rows
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range keys {
		if rows, ok := toRowList(obj[key]); ok {
			return rows
		}
	}
	return nil
}

func toRowList(v any) ([]map[string]any, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows, true
}

// containsAnyKeyword reports whether text contains any keyword,
// case-insensitively.
func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
