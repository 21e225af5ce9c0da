// Package candidates defines the raw recommendation candidate model and the
// boundary decoding of untrusted candidate payloads.
//
// Candidates arrive from an external recommendation generator whose output is
// loosely structured: fields may be missing, years may be strings or numbers,
// and key casing varies. Decode coerces that input into the closed Candidate
// shape once, at the edge, so downstream code never branches on payload shape.
package candidates
