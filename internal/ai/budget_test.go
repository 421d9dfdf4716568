package ai

import "testing"

func TestTokenBudget_Unlimited(t *testing.T) {
	b := NewTokenBudget(0)
	b.Record("C4.3", 1_000_000)
	if !b.Allow("C4.3") {
		t.Error("Allow() = false, want true with no limit")
	}
}

func TestTokenBudget_DefaultLimit(t *testing.T) {
	b := NewTokenBudget(100)

	if !b.Allow("C4.3") {
		t.Fatal("Allow() = false before any usage")
	}
	if err := b.Record("C4.3", 60); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !b.Allow("C4.3") {
		t.Error("Allow() = false at 60/100")
	}
	b.Record("C4.3", 40)
	if b.Allow("C4.3") {
		t.Error("Allow() = true at 100/100")
	}
	if !b.Allow("B3.2") {
		t.Error("keys should have separate usage")
	}

	used, limit := b.Usage("C4.3")
	if used != 100 || limit != 100 {
		t.Errorf("Usage() = %d, %d, want 100, 100", used, limit)
	}
}

func TestTokenBudget_SetLimit(t *testing.T) {
	b := NewTokenBudget(10)
	b.SetLimit("Multi", 1000)
	b.Record("Multi", 500)
	if !b.Allow("Multi") {
		t.Error("Allow() = false under an overridden limit")
	}
	if _, limit := b.Usage("Multi"); limit != 1000 {
		t.Errorf("limit = %d, want 1000", limit)
	}
}

func TestTokenBudget_NegativeTokens(t *testing.T) {
	if err := NewTokenBudget(0).Record("C4.3", -1); err == nil {
		t.Error("Record() should reject negative tokens")
	}
}
