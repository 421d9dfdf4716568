// Package term reads the school term calendar (term.json) and derives the
// number of teaching weeks in each half term.
package term

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/p-n-ai/core-knowledge/internal/schemas"
)

// DefaultWeeks is used when a half term has neither teaching_weeks nor
// usable dates.
const DefaultWeeks = 6

const dateLayout = "2006-01-02"

// HalfTermSpec is one entry of a term's half_terms list.
type HalfTermSpec struct {
	Name          string `json:"name,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	TeachingWeeks *int   `json:"teaching_weeks,omitempty"`
}

// Weeks returns the teaching weeks of the half term.
func (h HalfTermSpec) Weeks() int {
	if h.TeachingWeeks != nil {
		return *h.TeachingWeeks
	}
	if h.Start != "" && h.End != "" {
		return weeksBetween(h.Start, h.End)
	}
	return DefaultWeeks
}

type termSpec struct {
	HalfTerms []HalfTermSpec `json:"half_terms"`
}

// Calendar is academic year → term name → half terms.
type Calendar map[string]map[string][]HalfTermSpec

// HalfTerm is a flattened calendar entry.
type HalfTerm struct {
	Year  string `json:"year"`
	Term  string `json:"term"`
	Index int    `json:"index"`
	Name  string `json:"name"`
	Weeks int    `json:"teaching_weeks"`
}

// Load reads and validates a term.json file.
func Load(path string) (Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading term calendar: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes term calendar JSON.
func Parse(data []byte) (Calendar, error) {
	if err := schemas.Validate(schemas.TermCalendar, data); err != nil {
		return nil, err
	}

	var raw map[string]map[string]termSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding term calendar: %w", err)
	}

	cal := make(Calendar, len(raw))
	for year, terms := range raw {
		cal[year] = make(map[string][]HalfTermSpec, len(terms))
		for name, t := range terms {
			cal[year][name] = t.HalfTerms
		}
	}
	return cal, nil
}

// HalfTerms lists every half term ordered by year, term (Autumn, Spring,
// Summer, then others by name) and position.
func (c Calendar) HalfTerms() []HalfTerm {
	var out []HalfTerm
	for _, year := range sortedKeys(c) {
		terms := c[year]
		names := make([]string, 0, len(terms))
		for name := range terms {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			ri, rj := seasonRank(names[i]), seasonRank(names[j])
			if ri != rj {
				return ri < rj
			}
			return names[i] < names[j]
		})

		for _, name := range names {
			for i, ht := range terms[name] {
				label := ht.Name
				if label == "" {
					label = fmt.Sprintf("HT%d", i+1)
				}
				out = append(out, HalfTerm{Year: year, Term: name, Index: i, Name: label, Weeks: ht.Weeks()})
			}
		}
	}
	return out
}

// TeachingWeeks returns the weeks of the half term at the zero-based index.
// ok is false when the year, term or index does not exist.
func (c Calendar) TeachingWeeks(year, term string, index int) (weeks int, ok bool) {
	halves, found := c[year][term]
	if !found || index < 0 || index >= len(halves) {
		return 0, false
	}
	return halves[index].Weeks(), true
}

func weeksBetween(start, end string) int {
	s, err1 := parseDate(start)
	e, err2 := parseDate(end)
	if err1 != nil || err2 != nil {
		return DefaultWeeks
	}
	days := e.Sub(s).Hours()/24 + 1
	return max(1, int(math.Round(days/7)))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}

func seasonRank(term string) int {
	t := strings.ToLower(term)
	switch {
	case strings.HasPrefix(t, "autumn"):
		return 0
	case strings.HasPrefix(t, "spring"):
		return 1
	case strings.HasPrefix(t, "summer"):
		return 2
	}
	return 3
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
