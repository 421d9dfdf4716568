package allocation

import (
	"reflect"
	"testing"
)

func TestSplitTiers(t *testing.T) {
	tests := []struct {
		name          string
		core          []string
		extension     []string
		wantRemaining []string
		wantSelected  []string
	}{
		{
			name:          "enough extension words",
			core:          []string{"c1", "c2"},
			extension:     []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"},
			wantRemaining: []string{"c1", "c2", "e6", "e7"},
			wantSelected:  []string{"e1", "e2", "e3", "e4", "e5"},
		},
		{
			name:          "borrow from end of core",
			core:          []string{"c1", "c2", "c3", "c4", "c5", "c6"},
			extension:     []string{"e1", "e2"},
			wantRemaining: []string{"c1", "c2", "c3"},
			wantSelected:  []string{"e1", "e2", "c4", "c5", "c6"},
		},
		{
			name:          "core too small to fill extension",
			core:          []string{"c1", "c2"},
			extension:     nil,
			wantRemaining: []string{},
			wantSelected:  []string{"c1", "c2"},
		},
		{
			name:          "no words at all",
			wantRemaining: []string{},
			wantSelected:  []string{},
		},
		{
			name:          "core word matching a short extension list is dropped",
			core:          []string{"a", "x"},
			extension:     []string{"X"},
			wantRemaining: []string{},
			wantSelected:  []string{"X", "a"},
		},
		{
			name:          "core word matching a selected extension word is dropped",
			core:          []string{"acid", "base"},
			extension:     []string{"Acid", "e2", "e3", "e4", "e5"},
			wantRemaining: []string{"base"},
			wantSelected:  []string{"Acid", "e2", "e3", "e4", "e5"},
		},
		{
			name:          "overflow is deduplicated against core",
			core:          []string{"acid"},
			extension:     []string{"e1", "e2", "e3", "e4", "e5", "Acid", "e6"},
			wantRemaining: []string{"acid", "e6"},
			wantSelected:  []string{"e1", "e2", "e3", "e4", "e5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, selected := SplitTiers(tt.core, tt.extension)
			if !reflect.DeepEqual(remaining, tt.wantRemaining) {
				t.Errorf("remaining = %#v, want %#v", remaining, tt.wantRemaining)
			}
			if !reflect.DeepEqual(selected, tt.wantSelected) {
				t.Errorf("selected = %#v, want %#v", selected, tt.wantSelected)
			}
		})
	}
}

func TestSplitTiers_DoesNotMutateInput(t *testing.T) {
	core := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	ext := []string{"e1"}
	SplitTiers(core, ext)

	if !reflect.DeepEqual(core, []string{"c1", "c2", "c3", "c4", "c5", "c6"}) {
		t.Errorf("core mutated: %v", core)
	}
	if !reflect.DeepEqual(ext, []string{"e1"}) {
		t.Errorf("extension mutated: %v", ext)
	}
}
