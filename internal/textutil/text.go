package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Ellipsis terminates clipped text.
const Ellipsis = "…"

// Clip shortens text to at most limit runes, replacing the tail with an
// ellipsis when it does not fit.
func Clip(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimRightFunc(string(runes[:limit-1]), unicode.IsSpace) + Ellipsis
}

// Hashtag turns a display name into a hashtag by dropping everything but
// letters and digits. Case is kept as written ("BBQ Ribs" -> "#BBQRibs").
func Hashtag(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}

// ContainsFold reports whether needle occurs in haystack under Unicode case folding.
func ContainsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	folder := cases.Fold()
	return strings.Contains(folder.String(haystack), folder.String(needle))
}

// Dedupe removes repeated values while preserving first occurrence order.
// Values compare exactly; blank values are dropped.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
