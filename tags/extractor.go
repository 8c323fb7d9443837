// Package tags derives a bounded set of search keywords from prompt text.
// Extracted tags are stored with each generation record and feed the history
// store's substring search.
package tags

import (
	"regexp"
	"strings"
)

// MaxTags bounds the number of keywords kept per text.
const MaxTags = 10

// minTokenLength is exclusive: tokens of this length or shorter are dropped.
const minTokenLength = 3

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// stopWords are common words that carry no search value.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
}

// Extract tokenizes text on word boundaries, lowercases, drops tokens of
// length <= 3 and stop words, and keeps the first MaxTags survivors in their
// original order. Deterministic: the same input always yields the same tags.
func Extract(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	var result []string
	for _, w := range words {
		if len(w) <= minTokenLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		result = append(result, w)
		if len(result) == MaxTags {
			break
		}
	}

	return result
}
