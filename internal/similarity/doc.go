// Package similarity ranks verified content items against a reference item.
//
// Three signals feed a weighted combination: plot token overlap, keyword set
// overlap, and normalized title similarity. Every sub-score and the combined
// score lie in [0, 1]. When a candidate carries no usable keyword signal the
// keyword weight folds into the plot weight, so combined scores remain
// comparable across a mixed candidate pool.
//
// Scoring is a pure function of its inputs: no network, no clock, stable
// tie-breaking by input order.
package similarity
