// Package textutil provides small text helpers shared by the copy generator,
// the QA validator, and path construction: rune-aware clipping, hashtag
// building, case-insensitive term matching, and slug and path-segment normalization.
package textutil
