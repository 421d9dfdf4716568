// Package lesson defines the lesson catalog consumed by the weekly allocator.
package lesson

import (
	"fmt"
	"strings"
)

// FeedbackMarker in a title excludes the lesson from every word list.
const FeedbackMarker = "Feedback"

// Tier says which students study a lesson.
type Tier int

const (
	// TierCore lessons are taught to every student (foundation).
	TierCore Tier = iota
	// TierExtension lessons are only taught on the higher/triple track.
	TierExtension
)

func (t Tier) String() string {
	switch t {
	case TierCore:
		return "core"
	case TierExtension:
		return "extension_only"
	default:
		return "unknown"
	}
}

// ParseTier accepts the tier names used by catalogs and the API.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "core", "foundation":
		return TierCore, nil
	case "extension_only", "extension", "higher", "ht":
		return TierExtension, nil
	default:
		return TierCore, fmt.Errorf("unknown tier %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; YAML and JSON use it.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Lesson is one row of a unit's lesson catalog.
type Lesson struct {
	Code     string   `yaml:"code" json:"code"`
	Title    string   `yaml:"title" json:"title"`
	Tier     Tier     `yaml:"tier" json:"tier"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// IsFeedback reports whether the lesson is a feedback lesson.
func (l Lesson) IsFeedback() bool {
	return strings.Contains(l.Title, FeedbackMarker)
}

// Catalog maps lesson code to lesson.
type Catalog map[string]Lesson

// Add stores l under its code, replacing any previous entry.
func (c Catalog) Add(l Lesson) {
	c[l.Code] = l
}

// Teachable returns the codes of non-feedback lessons in lesson order.
func (c Catalog) Teachable() []string {
	codes := make([]string, 0, len(c))
	for code, l := range c {
		if !l.IsFeedback() {
			codes = append(codes, code)
		}
	}
	SortCodes(codes)
	return codes
}

// Merge copies every lesson of other into c. Existing codes are kept.
func (c Catalog) Merge(other Catalog) {
	for code, l := range other {
		if _, ok := c[code]; !ok {
			c[code] = l
		}
	}
}

// KeywordCounts returns total core and extension keywords across the catalog.
func (c Catalog) KeywordCounts() (core, extension int) {
	for _, l := range c {
		if l.Tier == TierExtension {
			extension += len(l.Keywords)
		} else {
			core += len(l.Keywords)
		}
	}
	return core, extension
}
