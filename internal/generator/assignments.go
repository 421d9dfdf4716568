package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/p-n-ai/core-knowledge/internal/lesson"
	"github.com/p-n-ai/core-knowledge/internal/schemas"
)

type assignmentsFile struct {
	Weeks [][]string `json:"weeks"`
}

// LoadAssignments reads a week assignments file:
// {"weeks": [["C4.3.1", "C4.3.2"], ["C4.3.3"]]}.
func LoadAssignments(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading week assignments: %w", err)
	}
	return ParseAssignments(data)
}

// ParseAssignments validates and decodes week assignments JSON.
func ParseAssignments(data []byte) ([][]string, error) {
	if err := schemas.Validate(schemas.WeekAssignments, data); err != nil {
		return nil, err
	}
	var f assignmentsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding week assignments: %w", err)
	}
	return f.Weeks, nil
}

// assignmentCodes returns the distinct base lesson codes named anywhere
// in weeks, in first-seen order.
func assignmentCodes(weeks [][]string) []string {
	var out []string
	for _, week := range weeks {
		for _, code := range week {
			base := lesson.BaseCode(code)
			if base != "" && !slices.Contains(out, base) {
				out = append(out, base)
			}
		}
	}
	return out
}

// unitsOf returns the sorted distinct units of codes.
func unitsOf(codes []string) []string {
	var units []string
	for _, c := range codes {
		if u := lesson.UnitOf(c); !slices.Contains(units, u) {
			units = append(units, u)
		}
	}
	slices.Sort(units)
	return units
}

// expandWeeks maps each requested code onto catalog keys: an exact key
// is kept, otherwise the base code, otherwise every sublesson of that
// base in lesson order.
func expandWeeks(cat lesson.Catalog, weeks [][]string) [][]string {
	out := make([][]string, 0, len(weeks))
	for _, week := range weeks {
		var codes []string
		for _, raw := range week {
			code := strings.TrimSpace(raw)
			if code == "" {
				continue
			}
			if _, ok := cat[code]; ok {
				codes = append(codes, code)
				continue
			}
			base := lesson.BaseCode(code)
			if _, ok := cat[base]; ok {
				codes = append(codes, base)
				continue
			}
			var subs []string
			for k := range cat {
				if lesson.BaseCode(k) == base {
					subs = append(subs, k)
				}
			}
			slices.SortFunc(subs, func(a, b string) int {
				if c := lesson.Compare(lesson.BaseCode(a), lesson.BaseCode(b)); c != 0 {
					return c
				}
				return strings.Compare(a, b)
			})
			codes = append(codes, subs...)
		}
		out = append(out, codes)
	}
	return out
}
