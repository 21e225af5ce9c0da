package tmdb

import (
	"math"
	"strconv"
	"strings"
)

// Record is a raw provider payload. Keys and shapes are provider-controlled;
// callers resolve concepts through accessor helpers instead of assuming a
// closed schema.
type Record map[string]any

// String returns the first non-empty string value among the given keys.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// Float returns the first numeric value among the given keys.
func (r Record) Float(keys ...string) float64 {
	for _, key := range keys {
		switch v := r[key].(type) {
		case float64:
			return v
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// Int returns the first integral value among the given keys.
func (r Record) Int(keys ...string) int64 {
	for _, key := range keys {
		switch v := r[key].(type) {
		case float64:
			if v == math.Trunc(v) {
				return int64(v)
			}
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// Strings returns string elements collected from the first list-valued key.
// List entries may be plain strings or objects carrying a "name" field, as
// TMDB genre and keyword lists are.
func (r Record) Strings(keys ...string) []string {
	for _, key := range keys {
		list, ok := r[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			switch v := item.(type) {
			case string:
				if trimmed := strings.TrimSpace(v); trimmed != "" {
					out = append(out, trimmed)
				}
			case map[string]any:
				if name := Record(v).String("name"); name != "" {
					out = append(out, name)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Year extracts a four-digit year from the first date-shaped value found.
func (r Record) Year(keys ...string) int {
	for _, key := range keys {
		value := r.String(key)
		if len(value) < 4 {
			continue
		}
		if year, err := strconv.Atoi(value[:4]); err == nil && year > 0 {
			return year
		}
	}
	return 0
}
