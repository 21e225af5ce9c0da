package verify

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"screener/internal/candidates"
	"screener/internal/logging"
	"screener/internal/textutil"
	"screener/internal/tmdb"
)

// Verifier resolves candidates against the metadata provider. It holds no
// mutable state; verification is idempotent and safe for concurrent use.
type Verifier struct {
	provider       tmdb.Provider
	logger         *slog.Logger
	matchThreshold float64
}

// New constructs a Verifier. matchThreshold is the minimum normalized title
// similarity a search result must reach to be accepted as the match.
func New(provider tmdb.Provider, logger *slog.Logger, matchThreshold float64) *Verifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		provider:       provider,
		logger:         logging.NewComponentLogger(logger, "verify"),
		matchThreshold: matchThreshold,
	}
}

// Verify resolves a candidate to a verified content item.  Failures carry
// one of the package sentinel errors for classification by the caller.
func (v *Verifier) Verify(ctx context.Context, cand candidates.Candidate) (*Item, error) {
	title := strings.TrimSpace(cand.Title)
	if title == "" {
		return nil, Wrap(ErrMalformedCandidate, "verify", "candidate has no title", nil)
	}

	record, err := v.lookup(ctx, cand, title)
	if err != nil {
		return nil, err
	}

	item := fromRecord(cand, record)
	item.Keywords = v.fetchKeywords(ctx, item)

	v.logger.Debug("candidate verified",
		logging.String("title", item.Title),
		logging.Int64("content_id", item.ContentID),
		logging.String("media_type", string(item.MediaType)),
		logging.Int("keywords", len(item.Keywords)),
	)
	return item, nil
}

func (v *Verifier) lookup(ctx context.Context, cand candidates.Candidate, title string) (tmdb.Record, error) {
	if id, ok := parseProviderID(cand.ID); ok {
		return v.lookupByID(ctx, id)
	}
	return v.lookupByTitle(ctx, title, cand.Year)
}

// lookupByID fetches the movie record first and falls back to TV, since
// candidate ids do not distinguish media type.
func (v *Verifier) lookupByID(ctx context.Context, id int64) (tmdb.Record, error) {
	record, err := v.provider.MovieByID(ctx, id)
	if errors.Is(err, tmdb.ErrNotFound) {
		record, err = v.provider.TVByID(ctx, id)
	}
	if errors.Is(err, tmdb.ErrNotFound) {
		return nil, Wrap(ErrNotFound, "lookup by id", strconv.FormatInt(id, 10), nil)
	}
	if err != nil {
		return nil, classifyProviderError("lookup by id", err)
	}
	return record, nil
}

func (v *Verifier) lookupByTitle(ctx context.Context, title string, year int) (tmdb.Record, error) {
	results, err := v.provider.SearchMulti(ctx, title, year)
	if err != nil {
		return nil, classifyProviderError("search", err)
	}
	if len(results) == 0 {
		return nil, Wrap(ErrNotFound, "search", title, nil)
	}

	best := selectBestMatch(title, year, results)
	similarity := textutil.TitleSimilarity(title, best.String(titleAliases...))
	if similarity < v.matchThreshold {
		v.logger.Debug("best search result below match threshold",
			logging.String("query", title),
			logging.String("best_title", best.String(titleAliases...)),
			logging.Float64("similarity", similarity),
			logging.Float64("threshold", v.matchThreshold),
		)
		return nil, Wrap(ErrAmbiguousMatch, "search", title, nil)
	}

	// Search payloads are thin; fetch full details for the chosen match.
	return v.detailsForMatch(ctx, best)
}

// detailsForMatch refetches the full record for a search result. Movie and TV
// ids are independent sequences, so the search result's media_type decides
// which endpoint to hit.
func (v *Verifier) detailsForMatch(ctx context.Context, match tmdb.Record) (tmdb.Record, error) {
	id := match.Int("id")

	var (
		record tmdb.Record
		err    error
	)
	switch match.String("media_type") {
	case "tv":
		record, err = v.provider.TVByID(ctx, id)
	case "movie":
		record, err = v.provider.MovieByID(ctx, id)
	default:
		return v.lookupByID(ctx, id)
	}
	if errors.Is(err, tmdb.ErrNotFound) {
		return nil, Wrap(ErrNotFound, "detail lookup", strconv.FormatInt(id, 10), nil)
	}
	if err != nil {
		return nil, classifyProviderError("detail lookup", err)
	}
	return record, nil
}

// selectBestMatch picks the result whose normalized title has the smallest
// edit distance to the query, breaking ties by closest year.
func selectBestMatch(title string, year int, results []tmdb.Record) tmdb.Record {
	normalized := textutil.NormalizeTitle(title)
	best := results[0]
	bestDistance := -1
	bestYearDelta := 0

	for _, record := range results {
		distance := textutil.LevenshteinDistance(normalized, textutil.NormalizeTitle(record.String(titleAliases...)))
		delta := yearDelta(year, record.Year(dateAliases...))
		if bestDistance < 0 || distance < bestDistance || (distance == bestDistance && delta < bestYearDelta) {
			best = record
			bestDistance = distance
			bestYearDelta = delta
		}
	}
	return best
}

func yearDelta(want, got int) int {
	if want == 0 || got == 0 {
		// Unknown years rank behind any real year match.
		return 1 << 16
	}
	delta := want - got
	if delta < 0 {
		delta = -delta
	}
	return delta
}

// fetchKeywords is best-effort: a candidate without keywords still scores,
// so provider failures here degrade the signal instead of failing the job.
func (v *Verifier) fetchKeywords(ctx context.Context, item *Item) []string {
	if item.ContentID <= 0 {
		return nil
	}
	keywords, err := v.provider.Keywords(ctx, string(item.MediaType), item.ContentID)
	if err != nil {
		v.logger.Debug("keyword fetch failed",
			logging.Int64("content_id", item.ContentID),
			logging.Error(err),
		)
		return nil
	}
	return keywords
}

func parseProviderID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		// Untrusted input: a malformed id falls back to title search.
		return 0, false
	}
	return id, true
}

// classifyProviderError maps provider transport failures onto the transient
// marker. Context cancellation propagates unchanged so shutdown is not
// mistaken for a provider outage.
func classifyProviderError(operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return Wrap(ErrProviderUnavailable, operation, "", err)
}
