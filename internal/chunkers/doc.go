// Package chunkers splits extracted text into bounded, overlapping
// segments with lineage metadata. One strategy per content class:
// section packing for long-form documents, symbol boundaries for code,
// and a recursive splitter as the structure-free fallback.
//
// Token budgets use a fixed words-to-tokens ratio, not a tokenizer, so
// limits are upper-bound heuristics rather than exact counts.
package chunkers
