package verify_test

import (
	"context"
	"errors"
	"testing"

	"screener/internal/candidates"
	"screener/internal/tmdb"
	"screener/internal/verify"
)

// fakeProvider serves canned records for verifier tests.
type fakeProvider struct {
	movies   map[int64]tmdb.Record
	shows    map[int64]tmdb.Record
	searches map[string][]tmdb.Record
	keywords map[int64][]string
	err      error
}

func (f *fakeProvider) MovieByID(_ context.Context, id int64) (tmdb.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if record, ok := f.movies[id]; ok {
		return record, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeProvider) TVByID(_ context.Context, id int64) (tmdb.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if record, ok := f.shows[id]; ok {
		return record, nil
	}
	return nil, tmdb.ErrNotFound
}

func (f *fakeProvider) SearchMulti(_ context.Context, query string, _ int) ([]tmdb.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searches[query], nil
}

func (f *fakeProvider) Keywords(_ context.Context, _ string, id int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords[id], nil
}

func martianRecord() tmdb.Record {
	return tmdb.Record{
		"id":           float64(286217),
		"title":        "The Martian",
		"overview":     "An astronaut stranded on Mars fights to survive",
		"release_date": "2015-10-02",
		"media_type":   "movie",
		"runtime":      float64(144),
		"poster_path":  "/martian.jpg",
		"vote_average": 7.7,
		"vote_count":   float64(20000),
		"certification": "PG-13",
		"genres": []any{
			map[string]any{"id": float64(878), "name": "Science Fiction"},
			map[string]any{"id": float64(12), "name": "Adventure"},
		},
	}
}

func newVerifier(p tmdb.Provider) *verify.Verifier {
	return verify.New(p, nil, 0.65)
}

func TestVerifyByID(t *testing.T) {
	provider := &fakeProvider{
		movies:   map[int64]tmdb.Record{286217: martianRecord()},
		keywords: map[int64][]string{286217: {"space", "survival", "mars"}},
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{ID: "286217", Title: "The Martian"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if item.ContentID != 286217 || item.Title != "The Martian" {
		t.Fatalf("unexpected item: %#v", item)
	}
	if item.Year != 2015 || item.Runtime != 144 {
		t.Fatalf("detail fields not populated: %#v", item)
	}
	if item.ContentRating != "PG-13" {
		t.Fatalf("rating alias not resolved: %q", item.ContentRating)
	}
	if len(item.Genres) != 2 || item.Genres[0] != "Adventure" {
		t.Fatalf("genres not normalized: %v", item.Genres)
	}
	if len(item.Keywords) != 3 {
		t.Fatalf("keywords missing: %v", item.Keywords)
	}
	if item.MediaType != verify.MediaMovie {
		t.Fatalf("media type = %q", item.MediaType)
	}
}

func TestVerifyByIDFallsBackToTV(t *testing.T) {
	provider := &fakeProvider{
		shows: map[int64]tmdb.Record{1396: {
			"id":             float64(1396),
			"name":           "Breaking Bad",
			"overview":       "A chemistry teacher turns to crime",
			"first_air_date": "2008-01-20",
			"media_type":     "tv",
		}},
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{ID: "1396", Title: "Breaking Bad"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if item.MediaType != verify.MediaTV || item.Year != 2008 {
		t.Fatalf("unexpected item: %#v", item)
	}
}

func TestVerifyByTitleDisambiguates(t *testing.T) {
	remake := tmdb.Record{
		"id":           float64(2),
		"title":        "Solaris",
		"release_date": "2002-11-27",
		"media_type":   "movie",
	}
	original := tmdb.Record{
		"id":           float64(1),
		"title":        "Solaris",
		"release_date": "1972-03-20",
		"media_type":   "movie",
	}
	provider := &fakeProvider{
		searches: map[string][]tmdb.Record{"Solaris": {remake, original}},
		movies: map[int64]tmdb.Record{
			1: original,
			2: remake,
		},
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{Title: "Solaris", Year: 1972})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if item.ContentID != 1 {
		t.Fatalf("year tie-break picked wrong record: %#v", item)
	}
}

func TestVerifyByTitlePrefersSmallestEditDistance(t *testing.T) {
	provider := &fakeProvider{
		searches: map[string][]tmdb.Record{"Alien": {
			{"id": float64(11), "title": "Aliens", "release_date": "1986-07-18", "media_type": "movie"},
			{"id": float64(10), "title": "Alien", "release_date": "1979-05-25", "media_type": "movie"},
		}},
		movies: map[int64]tmdb.Record{
			10: {"id": float64(10), "title": "Alien", "release_date": "1979-05-25", "media_type": "movie"},
			11: {"id": float64(11), "title": "Aliens", "release_date": "1986-07-18", "media_type": "movie"},
		},
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{Title: "Alien"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if item.ContentID != 10 {
		t.Fatalf("edit distance disambiguation picked %d, want 10", item.ContentID)
	}
}

func TestVerifyByTitleFetchesTVDetailsForTVMatch(t *testing.T) {
	// Movie and TV ids are independent sequences, so id 1396 names both an
	// unrelated movie and the show picked by the search.
	provider := &fakeProvider{
		searches: map[string][]tmdb.Record{"Breaking Bad": {
			{"id": float64(1396), "name": "Breaking Bad", "first_air_date": "2008-01-20", "media_type": "tv"},
		}},
		movies: map[int64]tmdb.Record{1396: {
			"id":           float64(1396),
			"title":        "Some Unrelated Movie",
			"release_date": "1994-06-10",
			"media_type":   "movie",
		}},
		shows: map[int64]tmdb.Record{1396: {
			"id":             float64(1396),
			"name":           "Breaking Bad",
			"overview":       "A chemistry teacher turns to crime",
			"first_air_date": "2008-01-20",
			"media_type":     "tv",
		}},
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{Title: "Breaking Bad"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if item.MediaType != verify.MediaTV {
		t.Fatalf("media type = %q, want tv", item.MediaType)
	}
	if item.Title != "Breaking Bad" || item.Year != 2008 {
		t.Fatalf("detail refetch resolved wrong record: %#v", item)
	}
}

func TestVerifyAmbiguousBelowThreshold(t *testing.T) {
	provider := &fakeProvider{
		searches: map[string][]tmdb.Record{"Moon": {
			{"id": float64(1), "title": "Completely Different Film", "media_type": "movie"},
		}},
	}
	v := newVerifier(provider)

	_, err := v.Verify(context.Background(), candidates.Candidate{Title: "Moon"})
	if !errors.Is(err, verify.ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
}

func TestVerifyNotFound(t *testing.T) {
	v := newVerifier(&fakeProvider{})

	_, err := v.Verify(context.Background(), candidates.Candidate{Title: "Nonexistent"})
	if !errors.Is(err, verify.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !verify.IsPermanent(err) {
		t.Fatal("NotFound should classify as permanent")
	}
}

func TestVerifyMalformedCandidate(t *testing.T) {
	v := newVerifier(&fakeProvider{})

	_, err := v.Verify(context.Background(), candidates.Candidate{Title: "   "})
	if !errors.Is(err, verify.ErrMalformedCandidate) {
		t.Fatalf("expected ErrMalformedCandidate, got %v", err)
	}
}

func TestVerifyProviderFailureIsTransient(t *testing.T) {
	v := newVerifier(&fakeProvider{err: errors.New("connection refused")})

	_, err := v.Verify(context.Background(), candidates.Candidate{Title: "The Martian"})
	if !errors.Is(err, verify.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !verify.IsTransient(err) || verify.IsPermanent(err) {
		t.Fatal("provider failure must classify as transient")
	}
}

func TestVerifyMalformedIDFallsBackToSearch(t *testing.T) {
	provider := &fakeProvider{
		searches: map[string][]tmdb.Record{"The Martian": {martianRecord()}},
		movies:   map[int64]tmdb.Record{286217: martianRecord()},
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{ID: "not-a-number", Title: "The Martian"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if item.ContentID != 286217 {
		t.Fatalf("unexpected item: %#v", item)
	}
}

func TestVerifyKeywordFailureDegrades(t *testing.T) {
	record := martianRecord()
	provider := &fakeProvider{
		movies: map[int64]tmdb.Record{286217: record},
		// keywords map empty: fetch yields nil without error
	}
	v := newVerifier(provider)

	item, err := v.Verify(context.Background(), candidates.Candidate{ID: "286217", Title: "The Martian"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(item.Keywords) != 0 {
		t.Fatalf("expected no keywords, got %v", item.Keywords)
	}
}

func TestVerifyIdempotent(t *testing.T) {
	provider := &fakeProvider{
		movies:   map[int64]tmdb.Record{286217: martianRecord()},
		keywords: map[int64][]string{286217: {"space"}},
	}
	v := newVerifier(provider)
	cand := candidates.Candidate{ID: "286217", Title: "The Martian"}

	first, err := v.Verify(context.Background(), cand)
	if err != nil {
		t.Fatalf("first Verify failed: %v", err)
	}
	second, err := v.Verify(context.Background(), cand)
	if err != nil {
		t.Fatalf("second Verify failed: %v", err)
	}
	if first.ContentID != second.ContentID || first.Title != second.Title || first.ContentRating != second.ContentRating {
		t.Fatalf("verification not idempotent: %#v vs %#v", first, second)
	}
}
