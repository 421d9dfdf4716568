package lesson_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/p-n-ai/core-knowledge/internal/lesson"
	"gopkg.in/yaml.v3"
)

func TestSortCodes_Numeric(t *testing.T) {
	codes := []string{"C4.2.10", "C4.2.2", "C4.2.1"}
	lesson.SortCodes(codes)

	want := []string{"C4.2.1", "C4.2.2", "C4.2.10"}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("SortCodes() = %v, want %v", codes, want)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.1.1", "3.1.1", 0},
		{"C4.9.1", "C4.10.1", -1},
		{"C4.3.10", "C4.3.9", 1},
		{"B3.2.4", "C1.1.1", -1},
		// Malformed codes fall back to whole-string keys.
		{"C4.x.1", "C4.x.2", -1},
		{"C4", "C4.1.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got := lesson.Compare(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare_SublessonFallsBackToWholeCode(t *testing.T) {
	// The minor part "2 / 2" does not parse, so the code keys on its full text.
	codes := []string{"C4.3.3", "C4.3.2 / 2", "C4.3.2", "C4.3.1"}
	lesson.SortCodes(codes)
	want := []string{"C4.3.1", "C4.3.2", "C4.3.3", "C4.3.2 / 2"}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("SortCodes() = %v, want %v", codes, want)
	}
}

func TestBaseCodeAndUnit(t *testing.T) {
	tests := []struct {
		code, base, unit string
	}{
		{"B3.2.4", "B3.2.4", "B3.2"},
		{"C4.3.2 / 2", "C4.3.2", "C4.3"},
		{"P3", "P3", "P3"},
	}
	for _, tt := range tests {
		if got := lesson.BaseCode(tt.code); got != tt.base {
			t.Errorf("BaseCode(%q) = %q, want %q", tt.code, got, tt.base)
		}
		if got := lesson.UnitOf(tt.code); got != tt.unit {
			t.Errorf("UnitOf(%q) = %q, want %q", tt.code, got, tt.unit)
		}
	}
}

func TestSubject(t *testing.T) {
	if got := lesson.Subject("B3.2"); got != "Biology" {
		t.Errorf("Subject(B3.2) = %q", got)
	}
	if got := lesson.Subject("C4.3"); got != "Chemistry" {
		t.Errorf("Subject(C4.3) = %q", got)
	}
	if got := lesson.Subject("P1.1"); got != "Physics" {
		t.Errorf("Subject(P1.1) = %q", got)
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    lesson.Tier
		wantErr bool
	}{
		{"core", lesson.TierCore, false},
		{"", lesson.TierCore, false},
		{"Foundation", lesson.TierCore, false},
		{"extension_only", lesson.TierExtension, false},
		{"HT", lesson.TierExtension, false},
		{"triple", lesson.TierCore, true},
	}
	for _, tt := range tests {
		got, err := lesson.ParseTier(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTier(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLesson_DecodeTier(t *testing.T) {
	var fromYAML lesson.Lesson
	if err := yaml.Unmarshal([]byte("code: X.1.2\ntitle: Detail\ntier: extension_only\nkeywords: [gamma]\n"), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if fromYAML.Tier != lesson.TierExtension {
		t.Errorf("YAML tier = %v, want extension_only", fromYAML.Tier)
	}

	var fromJSON lesson.Lesson
	if err := json.Unmarshal([]byte(`{"code":"X.1.1","tier":"core"}`), &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if fromJSON.Tier != lesson.TierCore {
		t.Errorf("JSON tier = %v, want core", fromJSON.Tier)
	}

	out, err := json.Marshal(fromYAML)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if want := `"tier":"extension_only"`; !strings.Contains(string(out), want) {
		t.Errorf("json.Marshal() = %s, want it to contain %s", out, want)
	}
}

func TestCatalog_Teachable(t *testing.T) {
	c := lesson.Catalog{}
	c.Add(lesson.Lesson{Code: "C4.3.10", Title: "Titration"})
	c.Add(lesson.Lesson{Code: "C4.3.2", Title: "Moles"})
	c.Add(lesson.Lesson{Code: "C4.3.3", Title: "Unit 3 Feedback"})

	got := c.Teachable()
	want := []string{"C4.3.2", "C4.3.10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Teachable() = %v, want %v", got, want)
	}
}

func TestCatalog_MergeKeepsExisting(t *testing.T) {
	c := lesson.Catalog{"A.1.1": {Code: "A.1.1", Title: "first"}}
	c.Merge(lesson.Catalog{
		"A.1.1": {Code: "A.1.1", Title: "second"},
		"A.1.2": {Code: "A.1.2", Title: "other"},
	})
	if c["A.1.1"].Title != "first" {
		t.Errorf("Merge() replaced existing lesson: %q", c["A.1.1"].Title)
	}
	if len(c) != 2 {
		t.Errorf("len = %d, want 2", len(c))
	}
}

func TestCatalog_KeywordCounts(t *testing.T) {
	c := lesson.Catalog{
		"A.1.1": {Code: "A.1.1", Keywords: []string{"a", "b"}},
		"A.1.2": {Code: "A.1.2", Tier: lesson.TierExtension, Keywords: []string{"c"}},
	}
	core, ext := c.KeywordCounts()
	if core != 2 || ext != 1 {
		t.Errorf("KeywordCounts() = (%d, %d), want (2, 1)", core, ext)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
