package catalog

import (
	"strings"
	"unicode"
)

// NormalizeHeader converts a source column name to snake_case so that
// scraper exports, spreadsheets and hand-written files line up.
//
// Examples:
//   - "Duration (Minutes)" → "duration_minutes"
//   - "Main Category" → "main_category"
//   - "viewsPerDay" → "views_per_day"
//   - "Days-Since-Upload" → "days_since_upload"
func NormalizeHeader(s string) string {
	words := splitWords(strings.TrimPrefix(s, "\ufeff"))
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// splitWords splits on any non-alphanumeric rune and on lower→upper case changes.
func splitWords(s string) []string {
	var words []string
	var current strings.Builder
	var prev rune

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
		prev = r
	}
	flush()

	return words
}
