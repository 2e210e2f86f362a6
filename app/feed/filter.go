package feed

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter keeps the entries whose title or description contains term,
// ignoring case. An empty term keeps everything.
func Filter(entries []Entry, term string) []Entry {
	if term == "" {
		return entries
	}

	// a Caser keeps state, one per call
	lower := cases.Lower(language.Und)
	needle := lower.String(term)

	return lo.Filter(entries, func(e Entry, _ int) bool {
		return strings.Contains(lower.String(e.Title), needle) ||
			strings.Contains(lower.String(e.Description), needle)
	})
}
