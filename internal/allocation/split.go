package allocation

import (
	"slices"

	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

// SplitTiers picks a week's extension words from the deduplicated core
// and extension candidates and returns the remaining core candidates.
//
// With five or more extension candidates the first five are selected and
// the rest join the core list. Otherwise the shortfall is borrowed from
// the end of the core list, keeping core order. A core word matching a
// selected extension word is dropped, so no word is in both tiers.
func SplitTiers(core, extension []string) (remaining, selected []string) {
	if len(extension) >= ExtensionWords {
		selected = slices.Clone(extension[:ExtensionWords])
		remaining = without(vocab.Dedupe(append(slices.Clone(core), extension[ExtensionWords:]...)), selected)
		return remaining, selected
	}

	selected = append(make([]string, 0, ExtensionWords), extension...)
	remaining = without(core, extension)

	n := min(ExtensionWords-len(selected), len(remaining))
	selected = append(selected, remaining[len(remaining)-n:]...)
	return remaining[:len(remaining)-n], selected
}

// without returns words minus any whose normalized form is in drop.
func without(words, drop []string) []string {
	skip := vocab.NewSet(drop...)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !skip.Has(w) {
			out = append(out, w)
		}
	}
	return out
}
