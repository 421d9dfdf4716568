package allocation

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

// Repetition decides what Pad does once the pool has nothing left to give.
type Repetition int

const (
	// RepeatNone leaves a short core list short.
	RepeatNone Repetition = iota
	// RepeatCycle repeats the week's own words in order, at most one pass.
	RepeatCycle
)

func (r Repetition) String() string {
	switch r {
	case RepeatNone:
		return "none"
	case RepeatCycle:
		return "cycle"
	default:
		return "unknown"
	}
}

// ParseRepetition parses "none" or "cycle".
func ParseRepetition(s string) (Repetition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RepeatNone, nil
	case "cycle", "repeat":
		return RepeatCycle, nil
	default:
		return RepeatNone, fmt.Errorf("unknown repetition policy %q", s)
	}
}

// Pool is the supplemental vocabulary for one generation run. A pool
// word tops up at most one week; the used set lives as long as the Pool.
type Pool struct {
	mu    sync.Mutex
	words []string
	used  *vocab.Set
}

// NewPool creates a run-scoped pool over words, in the given order.
func NewPool(words []string) *Pool {
	return &Pool{
		words: slices.Clone(words),
		used:  vocab.NewSet(),
	}
}

// Used returns the number of pool words consumed so far.
func (p *Pool) Used() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used.Len()
}

// Pad tops core up towards MinCoreWords from the pool and caps it at
// MaxCoreWords. It returns the padded list and the pool words it added.
// An empty core list is returned unchanged.
func (p *Pool) Pad(core []string, rep Repetition) (padded, added []string) {
	return p.fill(core, nil, len(core) > 0, rep)
}

// fill pads core when want is set, skipping pool words already in core or
// in taken. The week builder sets want when the week had core candidates
// before the tier split, even if the split moved all of them to extension.
func (p *Pool) fill(core, taken []string, want bool, rep Repetition) (padded, added []string) {
	padded = slices.Clone(core)
	if !want {
		return padded, nil
	}

	p.mu.Lock()
	present := vocab.NewSet(padded...)
	for _, w := range taken {
		present.Add(w)
	}
	for len(padded) < MinCoreWords {
		w, ok := p.next(present)
		if !ok {
			break
		}
		padded = append(padded, w)
		added = append(added, w)
		present.Add(w)
		p.used.Add(w)
	}
	p.mu.Unlock()

	if rep == RepeatCycle {
		n := len(padded)
		for i := 0; i < n && len(padded) < MinCoreWords; i++ {
			padded = append(padded, padded[i])
		}
	}

	if len(padded) > MaxCoreWords {
		padded = padded[:MaxCoreWords]
	}
	return padded, added
}

// next returns the first pool word not in present and not used this run.
// Callers hold p.mu.
func (p *Pool) next(present *vocab.Set) (string, bool) {
	for _, w := range p.words {
		if vocab.Normalize(w) == "" || present.Has(w) || p.used.Has(w) {
			continue
		}
		return w, true
	}
	return "", false
}
