// Package textutil provides text processing utilities for tokenization and
// string similarity.
//
// The primary use cases are:
//   - Tokenizing plot and keyword text into comparable word sets
//   - Computing set-overlap ratios between token sets
//   - Computing Levenshtein distance and a normalized similarity ratio
//
// Tokenization lowercases text, splits on non-alphanumeric characters, and
// discards tokens shorter than four characters so stop-word-sized tokens
// never contribute to a score.
package textutil
