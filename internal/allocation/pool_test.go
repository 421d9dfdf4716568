package allocation

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

func words(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func TestPool_PadEmptyCore(t *testing.T) {
	p := NewPool(words("p", 10))
	padded, added := p.Pad(nil, RepeatCycle)
	if len(padded) != 0 || len(added) != 0 {
		t.Errorf("Pad(nil) = %v, %v, want nothing", padded, added)
	}
	if p.Used() != 0 {
		t.Errorf("Used() = %d, want 0", p.Used())
	}
}

func TestPool_PadToMinimum(t *testing.T) {
	p := NewPool(words("p", 10))
	padded, added := p.Pad([]string{"a", "b"}, RepeatNone)

	want := append([]string{"a", "b"}, words("p", 8)...)
	if !reflect.DeepEqual(padded, want) {
		t.Errorf("Pad() = %v, want %v", padded, want)
	}
	if len(added) != 8 {
		t.Errorf("added = %d words, want 8", len(added))
	}
	if p.Used() != 8 {
		t.Errorf("Used() = %d, want 8", p.Used())
	}
}

func TestPool_UsedAcrossCalls(t *testing.T) {
	p := NewPool(words("p", 10))
	p.Pad([]string{"a", "b"}, RepeatNone)

	padded, added := p.Pad([]string{"c"}, RepeatNone)
	want := []string{"c", "p9", "p10"}
	if !reflect.DeepEqual(padded, want) {
		t.Errorf("second Pad() = %v, want %v", padded, want)
	}
	if !reflect.DeepEqual(added, []string{"p9", "p10"}) {
		t.Errorf("added = %v, want [p9 p10]", added)
	}
}

func TestPool_SkipsPresentBlankAndUsedVariants(t *testing.T) {
	p := NewPool([]string{"b", "", "   ", "Z", "z ", "y"})
	padded, _ := p.Pad([]string{"a", "B"}, RepeatNone)

	want := []string{"a", "B", "Z", "y"}
	if !reflect.DeepEqual(padded, want) {
		t.Errorf("Pad() = %v, want %v", padded, want)
	}
}

func TestPool_PadRepeatCycle(t *testing.T) {
	tests := []struct {
		name string
		core []string
		want []string
	}{
		{
			name: "one full pass stays short",
			core: []string{"a", "b", "c"},
			want: []string{"a", "b", "c", "a", "b", "c"},
		},
		{
			name: "stops at minimum",
			core: []string{"a", "b", "c", "d", "e", "f"},
			want: []string{"a", "b", "c", "d", "e", "f", "a", "b", "c", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(nil)
			padded, _ := p.Pad(tt.core, RepeatCycle)
			if !reflect.DeepEqual(padded, tt.want) {
				t.Errorf("Pad() = %v, want %v", padded, tt.want)
			}
		})
	}
}

func TestPool_PadCapsAtMaximum(t *testing.T) {
	p := NewPool(nil)
	padded, _ := p.Pad(words("c", 20), RepeatNone)
	if len(padded) != MaxCoreWords {
		t.Errorf("len(Pad()) = %d, want %d", len(padded), MaxCoreWords)
	}
}

func TestPool_ConcurrentPadUsesEachWordOnce(t *testing.T) {
	p := NewPool(words("p", 100))

	var mu sync.Mutex
	var all []string
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, added := p.Pad([]string{fmt.Sprintf("own%d", i)}, RepeatNone)
			mu.Lock()
			all = append(all, added...)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(all) != 90 {
		t.Fatalf("added %d pool words, want 90", len(all))
	}
	if got := len(vocab.Dedupe(all)); got != len(all) {
		t.Errorf("pool words reused: %d distinct of %d", got, len(all))
	}
}

func TestParseRepetition(t *testing.T) {
	tests := []struct {
		in      string
		want    Repetition
		wantErr bool
	}{
		{"", RepeatNone, false},
		{"none", RepeatNone, false},
		{"Cycle", RepeatCycle, false},
		{"forever", RepeatNone, true},
	}
	for _, tt := range tests {
		got, err := ParseRepetition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRepetition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseRepetition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
