package common

import "strings"

// HasAnySuffix reports whether s ends with any of the suffixes, ignoring case.
func HasAnySuffix(s string, suffixes ...string) bool {
	lower := strings.ToLower(s)
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(suf)) {
			return true
		}
	}
	return false
}

// NormalizeHeader lowercases a column header and drops everything that is
// not a letter or digit, so "Country/Region" and "Country_Region" compare
// equal.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
