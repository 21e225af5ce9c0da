// Package verify resolves raw recommendation candidates to authoritative
// metadata records and normalizes their fields.
//
// Lookup prefers an exact fetch when the candidate carries a provider id and
// falls back to title/year search with edit-distance disambiguation. Provider
// payloads expose the same concept under varying keys; an ordered alias table,
// declared once in this package, populates exactly one canonical field per
// concept so no downstream code ever branches on which alias was present.
//
// The package also owns the pipeline failure taxonomy: permanent failures
// (NotFound, AmbiguousMatch, MalformedCandidate) are never retried, while
// ProviderUnavailable marks transient transport conditions the queue may
// retry with backoff.
package verify
