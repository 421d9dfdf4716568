// Package allocation turns a lesson catalog into weekly core and
// extension word lists.
package allocation

import (
	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

const (
	// MinCoreWords is the number of core words every week is padded towards.
	MinCoreWords = 10
	// MaxCoreWords caps a week's core list.
	MaxCoreWords = 15
	// ExtensionWords is the size of a full extension list.
	ExtensionWords = 5

	// Auto mode keeps adding lessons while the week holds fewer than
	// autoTargetWords keywords, unless the next lesson would push it past
	// autoMaxWords.
	autoTargetWords = 12
	autoMaxWords    = 18
)

// Week is one teaching week's word lists.
type Week struct {
	Number         int      `json:"week" yaml:"week"`
	Lessons        []string `json:"lessons" yaml:"lessons"`
	Titles         []string `json:"titles" yaml:"titles"`
	CoreWords      []string `json:"core_words" yaml:"core_words"`
	ExtensionWords []string `json:"extension_words" yaml:"extension_words"`
	// PoolWords lists the core words that came from the supplemental pool.
	PoolWords []string `json:"pool_words,omitempty" yaml:"pool_words,omitempty"`
}

// Words returns the week's core words followed by its extension words.
func (w Week) Words() []string {
	out := make([]string, 0, len(w.CoreWords)+len(w.ExtensionWords))
	out = append(out, w.CoreWords...)
	return append(out, w.ExtensionWords...)
}

// Allocation is the ordered list of weeks produced by one build.
// Week numbers start at 1 and have no gaps.
type Allocation struct {
	Weeks []Week `json:"weeks" yaml:"weeks"`
}

// Empty reports whether nothing was allocated.
func (a Allocation) Empty() bool {
	return len(a.Weeks) == 0
}

// Week returns the week with the given number.
func (a Allocation) Week(number int) (Week, bool) {
	if number < 1 || number > len(a.Weeks) {
		return Week{}, false
	}
	return a.Weeks[number-1], true
}

// Words returns every word of every week in document order.
func (a Allocation) Words() []string {
	var out []string
	for _, w := range a.Weeks {
		out = append(out, w.Words()...)
	}
	return out
}

// Lessons returns the allocated lesson codes in week order.
func (a Allocation) Lessons() []string {
	var out []string
	for _, w := range a.Weeks {
		out = append(out, w.Lessons...)
	}
	return out
}

// UnusedPoolWords returns the pool words that appear in no week.
func (a Allocation) UnusedPoolWords(pool []string) []string {
	return vocab.NewSet(a.Words()...).Missing(vocab.Dedupe(pool))
}
