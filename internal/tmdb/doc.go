// Package tmdb provides access to The Movie Database API for metadata
// verification.
//
// Responses are decoded as open, loosely typed records rather than closed
// structs: TMDB payloads differ between the movie and TV surfaces and drift
// over time, so schema decisions are deferred to the verifier's alias table.
package tmdb
