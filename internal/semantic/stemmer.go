package semantic

import (
	"strings"

	"github.com/surgebase/porter2"
)

const defaultMinStemLength = 3

// Stemmer normalizes words to a common root (authenticate/authentication/
// authenticating all stem to the same form) using the Porter2 algorithm,
// grounded on github.com/surgebase/porter2.
type Stemmer struct {
	minLength  int
	exclusions map[string]bool
}

// NewStemmer builds a Stemmer. A non-positive minLength falls back to 3,
// matching the teacher's default (stemming short identifiers like "api" or
// "go" tends to mangle rather than normalize them).
func NewStemmer(minLength int, exclusions map[string]bool) *Stemmer {
	if minLength <= 0 {
		minLength = defaultMinStemLength
	}
	if exclusions == nil {
		exclusions = map[string]bool{}
	}
	return &Stemmer{minLength: minLength, exclusions: exclusions}
}

// Stem returns word's root form, or word unchanged if it is excluded or
// shorter than the configured minimum length.
func (s *Stemmer) Stem(word string) string {
	lower := strings.ToLower(word)
	if s.exclusions[lower] || len(word) < s.minLength {
		return word
	}
	return porter2.Stem(word)
}

// StemAll stems every word in words, preserving order.
func (s *Stemmer) StemAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = s.Stem(w)
	}
	return out
}

// AddExclusion marks word to never be stemmed, case-insensitively.
func (s *Stemmer) AddExclusion(word string) {
	s.exclusions[strings.ToLower(word)] = true
}
