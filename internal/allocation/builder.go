package allocation

import (
	"log/slog"

	"github.com/p-n-ai/core-knowledge/internal/lesson"
	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

// Options tunes a build.
type Options struct {
	Repetition Repetition
}

// Option configures a build.
type Option func(*Options)

// WithRepetition sets the policy used once the pool is exhausted.
func WithRepetition(r Repetition) Option {
	return func(o *Options) {
		o.Repetition = r
	}
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildAuto groups the catalog's teachable lessons, in lesson order, into
// weeks of roughly 12 keywords each. maxWeeks <= 0 means no limit;
// lessons left over once the limit is reached are not allocated.
func BuildAuto(catalog lesson.Catalog, pool []string, maxWeeks int, opts ...Option) Allocation {
	o := newOptions(opts)
	p := NewPool(pool)
	codes := catalog.Teachable()

	var alloc Allocation
	for i := 0; i < len(codes); {
		if maxWeeks > 0 && len(alloc.Weeks) >= maxWeeks {
			break
		}

		group := []string{codes[i]}
		total := len(catalog[codes[i]].Keywords)
		i++
		for i < len(codes) && total < autoTargetWords {
			next := len(catalog[codes[i]].Keywords)
			if total+next > autoMaxWords {
				break
			}
			group = append(group, codes[i])
			total += next
			i++
		}

		alloc.Weeks = append(alloc.Weeks, buildWeek(len(alloc.Weeks)+1, catalog, group, p, o))
	}
	return alloc
}

// BuildFromAssignments builds one week per entry of weeks, keeping the
// caller's grouping and order. Unknown and feedback lessons are dropped;
// a week left with no lessons is skipped and does not take a number.
func BuildFromAssignments(catalog lesson.Catalog, pool []string, weeks [][]string, opts ...Option) Allocation {
	o := newOptions(opts)
	p := NewPool(pool)

	var alloc Allocation
	for _, codes := range weeks {
		var members []string
		for _, code := range codes {
			l, ok := catalog[code]
			if !ok || l.IsFeedback() {
				continue
			}
			members = append(members, code)
		}
		if len(members) == 0 {
			continue
		}
		alloc.Weeks = append(alloc.Weeks, buildWeek(len(alloc.Weeks)+1, catalog, members, p, o))
	}
	return alloc
}

// BuildWeek builds a single week from the given lessons using a caller
// owned pool, so several weeks can share one run's pool.
func BuildWeek(number int, catalog lesson.Catalog, codes []string, p *Pool, opts ...Option) Week {
	return buildWeek(number, catalog, codes, p, newOptions(opts))
}

func buildWeek(number int, catalog lesson.Catalog, codes []string, p *Pool, o Options) Week {
	var core, extension []string
	titles := make([]string, 0, len(codes))
	for _, code := range codes {
		l := catalog[code]
		titles = append(titles, l.Title)
		if l.Tier == lesson.TierExtension {
			extension = append(extension, l.Keywords...)
		} else {
			core = append(core, l.Keywords...)
		}
	}

	candidates := vocab.Dedupe(core)
	remaining, selected := SplitTiers(candidates, vocab.Dedupe(extension))
	padded, added := p.fill(remaining, selected, len(candidates) > 0 || len(remaining) > 0, o.Repetition)

	w := Week{
		Number:         number,
		Lessons:        append([]string(nil), codes...),
		Titles:         titles,
		CoreWords:      padded,
		ExtensionWords: selected,
		PoolWords:      added,
	}

	slog.Debug("week allocated",
		"week", w.Number,
		"lessons", len(w.Lessons),
		"core_words", len(w.CoreWords),
		"extension_words", len(w.ExtensionWords),
		"pool_words", len(w.PoolWords),
	)
	return w
}
