// Package vocab holds keyword identity rules shared by every word list.
package vocab

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize returns the comparison key for a keyword: whitespace runs
// collapsed to single spaces, trimmed and lower-cased.
func Normalize(word string) string {
	collapsed := strings.Join(strings.Fields(word), " ")
	if collapsed == "" {
		return ""
	}
	// A Caser keeps internal state, so one is built per call.
	return cases.Lower(language.Und).String(collapsed)
}

// Equal reports whether two keywords are the same word.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Dedupe drops later duplicates, keeping the first spelling of each word.
func Dedupe(words []string) []string {
	seen := NewSet()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if seen.Add(w) {
			out = append(out, w)
		}
	}
	return out
}

// Set is a set of keywords keyed by their normalized form.
type Set struct {
	keys map[string]struct{}
}

// NewSet returns a set holding the given words.
func NewSet(words ...string) *Set {
	s := &Set{keys: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts word and reports whether it was new.
func (s *Set) Add(word string) bool {
	key := Normalize(word)
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Has reports whether word is in the set.
func (s *Set) Has(word string) bool {
	_, ok := s.keys[Normalize(word)]
	return ok
}

// Len returns the number of distinct words.
func (s *Set) Len() int {
	return len(s.keys)
}

// Missing returns the words from candidates that are not in the set, in order.
func (s *Set) Missing(candidates []string) []string {
	var out []string
	for _, w := range candidates {
		if !s.Has(w) {
			out = append(out, w)
		}
	}
	return out
}
