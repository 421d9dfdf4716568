package ai

import (
	"fmt"
	"sync"
)

// BudgetChecker tracks token spend per key (a unit code, or "Multi").
type BudgetChecker interface {
	// Allow reports whether key has budget left.
	Allow(key string) bool
	// Record adds tokens to key's usage.
	Record(key string, tokens int) error
	// Usage returns tokens used and the limit for key; a zero limit is unlimited.
	Usage(key string) (used, limit int64)
}

// TokenBudget is an in-memory BudgetChecker. Keys without an explicit
// limit use the default; a default of zero means unlimited.
type TokenBudget struct {
	mu       sync.RWMutex
	fallback int64
	limits   map[string]int64
	usage    map[string]int64
}

// NewTokenBudget creates a budget with the given default per-key limit.
func NewTokenBudget(defaultLimit int64) *TokenBudget {
	return &TokenBudget{
		fallback: defaultLimit,
		limits:   make(map[string]int64),
		usage:    make(map[string]int64),
	}
}

// SetLimit overrides the limit for one key.
func (b *TokenBudget) SetLimit(key string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limits[key] = tokens
}

func (b *TokenBudget) limit(key string) int64 {
	if l, ok := b.limits[key]; ok {
		return l
	}
	return b.fallback
}

func (b *TokenBudget) Allow(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	l := b.limit(key)
	return l <= 0 || b.usage[key] < l
}

func (b *TokenBudget) Record(key string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[key] += int64(tokens)
	return nil
}

func (b *TokenBudget) Usage(key string) (int64, int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[key], b.limit(key)
}
