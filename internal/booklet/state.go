package booklet

import (
	"regexp"
	"strings"
)

var statePrefix = regexp.MustCompile(`(?i)^state\s`)

// StatePrompt is a "State ..." example question from a lesson outcome
// table, with the intended outcome of its row.
type StatePrompt struct {
	Statement string `json:"statement"`
	Outcome   string `json:"outcome,omitempty"`
}

// GenericUnits reports whether the prompt asks for units without naming
// the quantities, as in "State the units for each quantity".
func (p StatePrompt) GenericUnits() bool {
	q := strings.ToLower(strings.TrimSpace(p.Statement))
	if !strings.Contains(q[:min(len(q), 10)], "state") {
		return false
	}
	return strings.Contains(q, "units for each") ||
		strings.Contains(q, "units for the") ||
		(strings.Contains(q, "unit") && strings.Contains(q, "quantity") && strings.Contains(q, "each"))
}

// StatePrompts returns the "State ..." example questions of the
// booklet's outcome tables, keyed by lesson code. Outcome tables have an
// "Intended outcome" first header cell and an "Example questions"
// column, and follow lesson order: the n-th table belongs to lessons[n].
// A lesson keeps at most one generic units prompt.
func (b *Booklet) StatePrompts(lessons []string) map[string][]StatePrompt {
	out := make(map[string][]StatePrompt)
	if b == nil || len(lessons) == 0 {
		return out
	}

	n := 0
	for _, t := range b.tables {
		col, ok := exampleColumn(t)
		if !ok {
			continue
		}
		if n >= len(lessons) {
			break
		}
		code := lessons[n]
		n++

		seenUnits := false
		for _, cells := range t[min(len(t), 2):] {
			if len(cells) <= col {
				continue
			}
			outcome := strings.TrimSpace(cells[0])
			for _, line := range strings.Split(cells[col], "\n") {
				line = strings.TrimSpace(line)
				if !statePrefix.MatchString(line) {
					continue
				}
				p := StatePrompt{Statement: line, Outcome: outcome}
				if p.GenericUnits() {
					if seenUnits {
						continue
					}
					seenUnits = true
				}
				out[code] = append(out[code], p)
			}
		}
	}
	return out
}

// exampleColumn reports whether t is an outcome table and which column
// holds its example questions. The header row is followed by a subtitle
// row before the outcomes.
func exampleColumn(t [][]string) (int, bool) {
	if len(t) < 2 || len(t[0]) == 0 {
		return 0, false
	}
	header := make([]string, len(t[0]))
	for i, c := range t[0] {
		header[i] = strings.ToLower(strings.TrimSpace(c))
	}
	if !strings.Contains(header[0], "intended outcome") || !strings.Contains(strings.Join(header, " "), "example question") {
		return 0, false
	}
	if len(header) > 2 && strings.Contains(header[2], "example question") {
		return 2, true
	}
	return 1, true
}
