package candidates

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Decode reads a JSON array of loosely structured candidate objects.
// Unknown keys are ignored; known concepts are accepted under the aliases the
// upstream generator has been observed to emit. Entries that are not objects
// are skipped rather than failing the batch.
func Decode(r io.Reader) ([]Candidate, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	out := make([]Candidate, 0, len(raw))
	for _, entry := range raw {
		if entry == nil {
			continue
		}
		out = append(out, fromRaw(entry))
	}
	return out, nil
}

// Alias precedence for each candidate concept, applied in order. Declared
// once; the first non-empty alias wins.
var (
	idAliases       = []string{"id", "tmdb_id", "tmdbId", "external_id"}
	titleAliases    = []string{"title", "name", "movie_title"}
	yearAliases     = []string{"year", "release_year", "releaseYear"}
	synopsisAliases = []string{"synopsis", "overview", "plot", "description"}
	reasonAliases   = []string{"reason", "why", "explanation"}
	aiAliases       = []string{"ai_recommended", "aiRecommended", "generated"}
)

func fromRaw(entry map[string]any) Candidate {
	return Candidate{
		ID:            firstString(entry, idAliases),
		Title:         firstString(entry, titleAliases),
		Year:          firstYear(entry, yearAliases),
		Synopsis:      firstString(entry, synopsisAliases),
		Reason:        firstString(entry, reasonAliases),
		AIRecommended: firstBool(entry, aiAliases),
	}
}

func firstString(entry map[string]any, aliases []string) string {
	for _, alias := range aliases {
		value, ok := entry[alias]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			if v == math.Trunc(v) {
				return strconv.FormatInt(int64(v), 10)
			}
		}
	}
	return ""
}

func firstYear(entry map[string]any, aliases []string) int {
	for _, alias := range aliases {
		value, ok := entry[alias]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if year := int(v); year > 0 {
				return year
			}
		case string:
			trimmed := strings.TrimSpace(v)
			// Tolerate full release dates like "2015-10-02".
			if len(trimmed) >= 4 {
				trimmed = trimmed[:4]
			}
			if year, err := strconv.Atoi(trimmed); err == nil && year > 0 {
				return year
			}
		}
	}
	return 0
}

func firstBool(entry map[string]any, aliases []string) bool {
	for _, alias := range aliases {
		value, ok := entry[alias]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case bool:
			return v
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return parsed
			}
		}
	}
	return false
}
