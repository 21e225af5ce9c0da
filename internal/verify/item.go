package verify

import (
	"sort"
	"strings"

	"screener/internal/candidates"
	"screener/internal/tmdb"
)

// MediaType distinguishes movie and TV records.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Item is a verified content record: the candidate's fields merged with the
// provider's authoritative metadata. Read-only after creation.
type Item struct {
	ContentID     int64     `json:"content_id"`
	Title         string    `json:"title"`
	Year          int       `json:"year,omitempty"`
	Synopsis      string    `json:"synopsis,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	AIRecommended bool      `json:"ai_recommended,omitempty"`
	ContentRating string    `json:"content_rating,omitempty"`
	Genres        []string  `json:"genres,omitempty"`
	Runtime       int       `json:"runtime,omitempty"`
	PosterURL     string    `json:"poster_url,omitempty"`
	VoteAverage   float64   `json:"vote_average,omitempty"`
	VoteCount     int64     `json:"vote_count,omitempty"`
	MediaType     MediaType `json:"media_type"`
	Keywords      []string  `json:"keywords,omitempty"`
}

// Alias precedence per provider concept, applied in declared order. The
// first non-empty alias populates the single canonical field; no alias is
// ever re-exposed downstream.
var (
	titleAliases    = []string{"title", "name", "original_title", "original_name"}
	synopsisAliases = []string{"overview", "synopsis", "plot", "description"}
	ratingAliases   = []string{"certification", "content_rating", "contentRating", "rating"}
	posterAliases   = []string{"poster_path", "poster_url", "posterUrl", "poster"}
	dateAliases     = []string{"release_date", "first_air_date", "air_date"}
	genreAliases    = []string{"genres", "genre_names"}
)

// fromRecord merges a candidate with the provider record it resolved to.
// Provider data wins for every concept it supplies; candidate fields fill
// the gaps (synopsis in particular, when the provider overview is empty).
func fromRecord(cand candidates.Candidate, record tmdb.Record) *Item {
	item := &Item{
		ContentID:     record.Int("id"),
		Title:         record.String(titleAliases...),
		Year:          record.Year(dateAliases...),
		Synopsis:      record.String(synopsisAliases...),
		Reason:        cand.Reason,
		AIRecommended: cand.AIRecommended,
		ContentRating: record.String(ratingAliases...),
		Genres:        normalizeGenres(record.Strings(genreAliases...)),
		Runtime:       int(record.Int("runtime")),
		PosterURL:     record.String(posterAliases...),
		VoteAverage:   record.Float("vote_average"),
		VoteCount:     record.Int("vote_count"),
		MediaType:     mediaTypeOf(record),
	}
	if item.Title == "" {
		item.Title = strings.TrimSpace(cand.Title)
	}
	if item.Year == 0 {
		item.Year = cand.Year
	}
	if item.Synopsis == "" {
		item.Synopsis = strings.TrimSpace(cand.Synopsis)
	}
	return item
}

func mediaTypeOf(record tmdb.Record) MediaType {
	if record.String("media_type") == "tv" {
		return MediaTV
	}
	return MediaMovie
}

// normalizeGenres deduplicates genres case-insensitively, preserving the
// set semantics of the canonical field. Output order is sorted for
// determinism.
func normalizeGenres(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	seen := make(map[string]string, len(genres))
	for _, genre := range genres {
		genre = strings.TrimSpace(genre)
		if genre == "" {
			continue
		}
		key := strings.ToLower(genre)
		if _, ok := seen[key]; !ok {
			seen[key] = genre
		}
	}
	out := make([]string, 0, len(seen))
	for _, genre := range seen {
		out = append(out, genre)
	}
	sort.Strings(out)
	return out
}
