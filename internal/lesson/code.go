package lesson

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// sortKey is the composite ordering key of a lesson code.
type sortKey struct {
	head  string
	major int
	minor int
}

func keyOf(code string) sortKey {
	parts := strings.Split(code, ".")
	if len(parts) >= 3 {
		major, errMajor := strconv.Atoi(parts[1])
		minor, errMinor := strconv.Atoi(parts[2])
		if errMajor == nil && errMinor == nil {
			return sortKey{head: parts[0], major: major, minor: minor}
		}
	}
	return sortKey{head: code}
}

// Compare orders lesson codes numerically on their dotted parts, so
// C4.2.2 sorts before C4.2.10. Codes that do not parse compare as the
// whole string followed by (0, 0).
func Compare(a, b string) int {
	ka, kb := keyOf(a), keyOf(b)
	if c := cmp.Compare(ka.head, kb.head); c != 0 {
		return c
	}
	if c := cmp.Compare(ka.major, kb.major); c != 0 {
		return c
	}
	if c := cmp.Compare(ka.minor, kb.minor); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// SortCodes sorts codes in place in lesson order.
func SortCodes(codes []string) {
	slices.SortStableFunc(codes, Compare)
}

// BaseCode strips a sublesson suffix: "C4.3.2 / 2" becomes "C4.3.2".
func BaseCode(code string) string {
	base, _, _ := strings.Cut(code, "/")
	return strings.TrimSpace(base)
}

// UnitOf returns the unit a lesson belongs to: B3.2.4 belongs to B3.2.
func UnitOf(code string) string {
	base := BaseCode(code)
	parts := strings.Split(base, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return base
}

// Subject names the science a unit code belongs to from its leading letter.
func Subject(code string) string {
	switch {
	case strings.HasPrefix(code, "B"):
		return "Biology"
	case strings.HasPrefix(code, "C"):
		return "Chemistry"
	case strings.HasPrefix(code, "P"):
		return "Physics"
	default:
		return "Science"
	}
}
