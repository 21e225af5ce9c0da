package similarity

import (
	"sort"

	"screener/internal/config"
	"screener/internal/textutil"
	"screener/internal/verify"
)

// Result holds the per-signal and combined similarity for one candidate
// against the reference item. One Result per (reference, candidate) pair.
type Result struct {
	ContentID int64   `json:"content_id"`
	Title     string  `json:"title"`
	Plot      float64 `json:"plot_similarity"`
	Keyword   float64 `json:"keyword_similarity"`
	TitleSim  float64 `json:"title_similarity"`
	Combined  float64 `json:"combined_similarity"`
}

// Weights control the combined score. They must sum to 1; NewScorer
// renormalizes any other sum so a combined score stays in [0, 1].
type Weights struct {
	Plot    float64
	Keyword float64
	Title   float64
}

// WeightsFromConfig extracts scoring weights from application config.
func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		Plot:    cfg.Scoring.PlotWeight,
		Keyword: cfg.Scoring.KeywordWeight,
		Title:   cfg.Scoring.TitleWeight,
	}
}

// Scorer computes similarity rankings. Stateless and safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer constructs a Scorer, normalizing weights to sum to 1.
func NewScorer(weights Weights) *Scorer {
	sum := weights.Plot + weights.Keyword + weights.Title
	if sum <= 0 {
		weights = Weights{Plot: 0.5, Keyword: 0.3, Title: 0.2}
		sum = 1
	}
	weights.Plot /= sum
	weights.Keyword /= sum
	weights.Title /= sum
	return &Scorer{weights: weights}
}

// Score ranks candidates against the reference, descending by combined
// similarity. The reference itself (same content id) is excluded, and
// candidates resolving to the same content id are deduplicated keeping the
// highest combined score. Ties preserve input order.
func (s *Scorer) Score(reference *verify.Item, cands []*verify.Item, useKeywords bool) []Result {
	if reference == nil {
		return nil
	}

	refPlot := textutil.TokenSet(reference.Synopsis)
	refKeywords := textutil.SetFromTerms(reference.Keywords)

	results := make([]Result, 0, len(cands))
	for _, cand := range cands {
		if cand == nil || cand.ContentID == reference.ContentID {
			continue
		}
		results = append(results, s.scoreOne(reference, refPlot, refKeywords, cand, useKeywords))
	}

	results = dedupe(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Combined > results[j].Combined
	})
	return results
}

func (s *Scorer) scoreOne(reference *verify.Item, refPlot, refKeywords map[string]struct{}, cand *verify.Item, useKeywords bool) Result {
	result := Result{
		ContentID: cand.ContentID,
		Title:     cand.Title,
		Plot:      textutil.OverlapRatio(refPlot, textutil.TokenSet(cand.Synopsis)),
		TitleSim:  textutil.TitleSimilarity(reference.Title, cand.Title),
	}

	plotWeight := s.weights.Plot
	keywordWeight := 0.0
	candKeywords := textutil.SetFromTerms(cand.Keywords)
	if useKeywords && len(refKeywords) > 0 && len(candKeywords) > 0 {
		result.Keyword = textutil.OverlapRatio(refKeywords, candKeywords)
		keywordWeight = s.weights.Keyword
	} else {
		// Keyword signal unavailable for this candidate: its weight folds
		// into plot so the combined range stays [0, 1].
		plotWeight += s.weights.Keyword
	}

	result.Combined = plotWeight*result.Plot +
		keywordWeight*result.Keyword +
		s.weights.Title*result.TitleSim
	return result
}

func dedupe(results []Result) []Result {
	if len(results) < 2 {
		return results
	}
	bestByID := make(map[int64]int, len(results))
	out := results[:0]
	for _, result := range results {
		idx, seen := bestByID[result.ContentID]
		if !seen {
			bestByID[result.ContentID] = len(out)
			out = append(out, result)
			continue
		}
		if result.Combined > out[idx].Combined {
			out[idx] = result
		}
	}
	return out
}
