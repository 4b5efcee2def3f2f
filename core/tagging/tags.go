// Package tagging extracts frequency-ranked keyword tags from free text.
package tagging

import (
	"cmp"
	"slices"

	"github.com/adalundhe/semhash/core/vectorstore"
)

// DefaultMax is used when ExtractTags is called with a non-positive limit.
const DefaultMax = 8

// minTagLen is exclusive.
const minTagLen = 4

var stopwords = map[string]struct{}{
	"their": {}, "there": {}, "which": {}, "these": {}, "those": {},
	"within": {}, "between": {}, "while": {}, "where": {}, "after": {},
	"before": {}, "could": {}, "would": {}, "about": {}, "being": {},
}

// ExtractTags returns up to limit words longer than four characters, most
// frequent first. Ties keep the order in which words first appear.
func ExtractTags(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMax
	}

	type entry struct {
		word  string
		count int
	}

	var entries []entry
	index := make(map[string]int)
	for _, w := range vectorstore.Tokenize(text) {
		if len(w) <= minTagLen {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if i, ok := index[w]; ok {
			entries[i].count++
			continue
		}
		index[w] = len(entries)
		entries = append(entries, entry{word: w, count: 1})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(b.count, a.count)
	})

	tags := make([]string, 0, min(limit, len(entries)))
	for _, e := range entries[:min(limit, len(entries))] {
		tags = append(tags, e.word)
	}
	return tags
}
