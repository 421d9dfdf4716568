package vocab_test

import (
	"reflect"
	"testing"

	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "mole", "mole"},
		{"upper", "Relative Atomic Mass", "relative atomic mass"},
		{"inner runs", "limiting   reactant", "limiting reactant"},
		{"newline", "hydrogen\nion", "hydrogen ion"},
		{"tabs and trim", "\t  Avogadro\t constant  ", "avogadro constant"},
		{"empty", "", ""},
		{"only space", " \n\t ", ""},
		{"unicode", "ÉLECTRON", "électron"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vocab.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", " ", "Mole", "  Relative\n\nFormula   Mass ", "ÄÖÜ  ß", "H⁺ ion", "a b", " x ",
	}
	for _, in := range inputs {
		once := vocab.Normalize(in)
		if twice := vocab.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestDedupe(t *testing.T) {
	in := []string{"Mole", "mass", " mole ", "Mass", "titration", "limiting  reactant", "Limiting reactant"}
	want := []string{"Mole", "mass", "titration", "limiting  reactant"}

	got := vocab.Dedupe(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe() = %v, want %v", got, want)
	}
}

func TestDedupe_DistinctAndSubsequence(t *testing.T) {
	in := []string{"a", "B", "b", "c", "A", " c", "d", "D ", "e"}
	got := vocab.Dedupe(in)

	seen := map[string]bool{}
	for _, w := range got {
		key := vocab.Normalize(w)
		if seen[key] {
			t.Fatalf("Dedupe() kept duplicate %q", w)
		}
		seen[key] = true
	}

	// got must be a subsequence of in made of first occurrences.
	j := 0
	for i := 0; i < len(in) && j < len(got); i++ {
		if in[i] == got[j] {
			j++
		}
	}
	if j != len(got) {
		t.Errorf("Dedupe() = %v is not a subsequence of %v", got, in)
	}
}

func TestDedupe_Empty(t *testing.T) {
	if got := vocab.Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) = %v, want empty", got)
	}
}

func TestSet(t *testing.T) {
	s := vocab.NewSet("Acid", "alkali")

	if !s.Has("ACID") {
		t.Error("Has(ACID) = false, want true")
	}
	if s.Add(" acid ") {
		t.Error("Add(acid) reported new for an existing word")
	}
	if !s.Add("base") {
		t.Error("Add(base) reported existing for a new word")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	missing := s.Missing([]string{"acid", "salt", "Base", "water"})
	if !reflect.DeepEqual(missing, []string{"salt", "water"}) {
		t.Errorf("Missing() = %v, want [salt water]", missing)
	}
}
