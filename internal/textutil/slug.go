package textutil

import (
	"strings"
	"unicode"
)

// Slugify lowercases name and collapses every run of characters other than
// ASCII letters, digits, and underscores into a single hyphen
// ("Chicken Marsala (GF)" -> "chicken-marsala-gf").
func Slugify(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(name) {
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// IsSlug reports whether value is already in Slugify form.
func IsSlug(value string) bool {
	return value != "" && Slugify(value) == value
}

var pathSegmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// PathSegment makes a display label (a course or section name) safe to use
// as one directory name. Blank or dot-only labels become "uncategorized".
func PathSegment(label string) string {
	out := strings.TrimSpace(pathSegmentReplacer.Replace(strings.TrimSpace(label)))
	if strings.Trim(out, ".") == "" {
		return "uncategorized"
	}
	return out
}
