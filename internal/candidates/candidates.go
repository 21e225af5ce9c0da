package candidates

import (
	"context"
	"fmt"
	"strings"
)

// Candidate is a raw, unverified recommendation suggestion. Immutable once
// created; consumed by the metadata verifier.
type Candidate struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	Synopsis      string `json:"synopsis,omitempty"`
	Reason        string `json:"reason,omitempty"`
	AIRecommended bool   `json:"ai_recommended,omitempty"`
}

// Key returns the identity used to coalesce duplicate enqueues. Candidates
// with an external identifier coalesce on it; otherwise normalized title and
// year stand in.
func (c Candidate) Key() string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return "id:" + id
	}
	title := strings.ToLower(strings.TrimSpace(c.Title))
	return fmt.Sprintf("title:%s|%d", title, c.Year)
}

// DisplayTitle returns the title with year suffix when known.
func (c Candidate) DisplayTitle() string {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "(untitled)"
	}
	if c.Year > 0 {
		return fmt.Sprintf("%s (%d)", title, c.Year)
	}
	return title
}

// Source produces raw recommendation candidates for a preference profile.
// Implementations are external collaborators; their output is untrusted.
type Source interface {
	GetCandidates(ctx context.Context, preferences string) ([]Candidate, error)
}
