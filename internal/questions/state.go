package questions

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/p-n-ai/core-knowledge/internal/booklet"
	"github.com/p-n-ai/core-knowledge/internal/resources"
	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

// SourceBooklet marks a "State ..." answer derived from the booklet,
// the lesson outcome or the specification.
const SourceBooklet Source = "booklet"

// StateUnanswered is printed when no candidate answer passes the check.
const StateUnanswered = "[state from lesson]"

const (
	maxStateAnswer = 50
	avogadro       = "6.02 × 10²³"
)

var (
	stateForms = []struct {
		re     *regexp.Regexp
		format string
	}{
		{regexp.MustCompile(`(?i)^state\s+the\s+units\s+`), "What are the units %s?"},
		{regexp.MustCompile(`(?i)^state\s+the\s+unit\s+`), "What is the unit %s?"},
		{regexp.MustCompile(`(?i)^state\s+the\s+`), "What is the %s?"},
		{regexp.MustCompile(`(?i)^state\s+`), "What is %s?"},
	}
	avogadroValue = regexp.MustCompile(`(?i)6\.02\s*[x×]\s*10\s*[^0-9]*23|6\.02\s*×\s*10²³`)
	unitSymbols   = regexp.MustCompile(`(?i)mol/dm³|mol/dm3|mol\s*/\s*dm³|g/mol|dm³|dm3|cm³|cm3|\bmol\b|\bg\b`)
)

// StateQuestion turns a "State ..." statement into a question: "State the
// Avogadro constant" becomes "What is the Avogadro constant?". Other text
// only gains a question mark.
func StateQuestion(statement string) string {
	t := strings.TrimRight(strings.TrimSpace(statement), "?.")
	if t == "" {
		return strings.TrimSpace(statement)
	}
	for _, f := range stateForms {
		loc := f.re.FindStringIndex(t)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(t[loc[1]:])
		if rest == "" {
			return t + "?"
		}
		return fmt.Sprintf(f.format, rest)
	}
	return t + "?"
}

// StateAnswers lists candidate answers for p, best first: values named in
// the row's outcome, then specification content, then units listed in the
// outcome for generic units prompts, then the first sentence of a glossary
// definition whose word appears in the statement.
func StateAnswers(p booklet.StatePrompt, glossary *booklet.Glossary, spec []resources.SpecLine) []string {
	var out []string
	outcome := strings.ToLower(p.Outcome)
	q := strings.ToLower(p.Statement)

	if avogadroValue.MatchString(p.Outcome) {
		out = append(out, avogadro)
	}
	if strings.Contains(outcome, "equation") {
		if strings.Contains(outcome, "moles") && strings.Contains(outcome, "mass") {
			out = append(out, "moles = mass ÷ Mr")
		}
		if strings.Contains(outcome, "concentration") && strings.Contains(outcome, "volume") {
			out = append(out, "moles = concentration × volume")
		}
	}
	if (strings.Contains(outcome, "dm3") || strings.Contains(outcome, "cm3")) &&
		(strings.Contains(outcome, "1000") || strings.Contains(outcome, "1 dm3")) {
		out = append(out, "1000 cm³ = 1 dm³")
	}
	if strings.Contains(outcome, "molar volume") || strings.Contains(outcome, "rtp") {
		out = append(out, "24 dm³")
	}

	for _, line := range spec {
		content := strings.ToLower(line.Content)
		if (strings.Contains(content, "6.02") || strings.Contains(content, "avogadro")) &&
			(strings.Contains(q, "avogadro") || strings.Contains(q, "mole") || strings.Contains(q, "particle")) {
			out = append(out, avogadro)
		}
		if strings.Contains(q, "conservation") && strings.Contains(q, "mass") && strings.Contains(content, "conservation") {
			out = append(out, truncate(firstSentence(line.Content), 100))
		}
	}

	if p.GenericUnits() {
		if units := outcomeUnits(p.Outcome); units != "" {
			out = append(out, units)
		}
	}

	for _, d := range glossary.Definitions() {
		word := strings.ToLower(d.Word)
		if !strings.Contains(q, word) && !strings.Contains(q, strings.ReplaceAll(word, "'", "")) {
			continue
		}
		if tbat(d.Text) {
			continue
		}
		if strings.Contains(d.Text, "6.02") {
			out = append(out, avogadro)
			continue
		}
		if first := truncate(firstSentence(d.Text), 100); first != "" && !tbat(first) {
			out = append(out, first)
		}
	}
	return vocab.Dedupe(out)
}

// outcomeUnits lists the unit symbols named in an outcome, first
// occurrence of each.
func outcomeUnits(outcome string) string {
	seen := make(map[string]bool)
	var units []string
	for _, u := range unitSymbols.FindAllString(outcome, -1) {
		key := strings.ToLower(strings.ReplaceAll(strings.Join(strings.Fields(u), ""), "³", "3"))
		if seen[key] {
			continue
		}
		seen[key] = true
		units = append(units, u)
	}
	return strings.Join(units, ", ")
}

func firstSentence(s string) string {
	first, _, _ := strings.Cut(s, ".")
	return strings.TrimSpace(first)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func tbat(s string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s)), "TBAT")
}

// StateItem is one "State ..." question printed under a week.
type StateItem struct {
	Lesson    string `json:"lesson"`
	Statement string `json:"statement"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Source    Source `json:"source"`
}

// StateSet holds the answered "State ..." questions by lesson code.
type StateSet struct {
	byLesson map[string][]StateItem
}

// State answers the booklet prompts. Each prompt takes the first
// candidate answer of at most 50 characters that passes the generator's
// Check; a prompt with none is answered StateUnanswered from the template
// source.
func (g *Generator) State(prompts map[string][]booklet.StatePrompt, glossary *booklet.Glossary, spec []resources.SpecLine) *StateSet {
	set := &StateSet{byLesson: make(map[string][]StateItem, len(prompts))}
	for code, ps := range prompts {
		for _, p := range ps {
			item := StateItem{
				Lesson:    code,
				Statement: p.Statement,
				Question:  StateQuestion(p.Statement),
				Answer:    StateUnanswered,
				Source:    SourceTemplate,
			}
			for _, a := range StateAnswers(p, glossary, spec) {
				if g.acceptableAnswer(a) {
					item.Answer, item.Source = a, SourceBooklet
					break
				}
			}
			set.byLesson[code] = append(set.byLesson[code], item)
		}
	}
	return set
}

func (g *Generator) acceptableAnswer(a string) bool {
	a = strings.TrimSpace(a)
	if a == "" || tbat(a) || utf8.RuneCountInString(a) > maxStateAnswer {
		return false
	}
	return g.check(a)
}

// Lesson returns the items of one lesson.
func (s *StateSet) Lesson(code string) []StateItem {
	if s == nil {
		return nil
	}
	return s.byLesson[code]
}

// Week returns the items of a week's lessons in lesson order. A repeated
// statement is printed once, and a units question is skipped when an
// earlier units question of the week has the same answer.
func (s *StateSet) Week(lessons []string) []StateItem {
	if s == nil {
		return nil
	}
	seen := vocab.NewSet()
	unitAnswers := make(map[string]bool)

	var out []StateItem
	for _, code := range lessons {
		for _, item := range s.byLesson[code] {
			if seen.Has(item.Statement) {
				continue
			}
			if strings.Contains(vocab.Normalize(item.Statement), "units of") {
				a := strings.TrimSpace(item.Answer)
				if unitAnswers[a] {
					continue
				}
				unitAnswers[a] = true
			}
			seen.Add(item.Statement)
			out = append(out, item)
		}
	}
	return out
}

// Len returns the number of items.
func (s *StateSet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, items := range s.byLesson {
		n += len(items)
	}
	return n
}

// Count returns how many items came from src.
func (s *StateSet) Count(src Source) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, items := range s.byLesson {
		for _, it := range items {
			if it.Source == src {
				n++
			}
		}
	}
	return n
}
