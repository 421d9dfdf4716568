// Package history records generation runs for audit. Nothing recorded
// here is read back by the allocation engine.
package history

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
)

const dbTimeout = 5 * time.Second

//go:embed schema.sql
var schemaSQL string

// Mode is how weeks were formed.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeExplicit Mode = "explicit"
	ModeMulti    Mode = "multi"
)

// Run is one finished generation.
type Run struct {
	ID         uuid.UUID
	Unit       string
	Mode       Mode
	OutputPath string
	Allocation allocation.Allocation
	UnusedPool []string
	// Questions counts questions by source (ai, cache, template).
	Questions  map[string]int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary is a recorded run without its allocation body.
type Summary struct {
	ID         uuid.UUID `json:"id"`
	Unit       string    `json:"unit"`
	Mode       Mode      `json:"mode"`
	Weeks      int       `json:"weeks"`
	Lessons    int       `json:"lessons"`
	OutputPath string    `json:"output_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

func (r Run) summary() Summary {
	return Summary{
		ID:         r.ID,
		Unit:       r.Unit,
		Mode:       r.Mode,
		Weeks:      len(r.Allocation.Weeks),
		Lessons:    len(r.Allocation.Lessons()),
		OutputPath: r.OutputPath,
		StartedAt:  r.StartedAt,
	}
}

func (r *Run) normalize() error {
	if r.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if r.Mode == "" {
		r.Mode = ModeAuto
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}
	return nil
}

// Recorder persists runs.
type Recorder interface {
	Record(ctx context.Context, run Run) (uuid.UUID, error)
}

// Store is a Recorder that can list what it recorded, newest first. An
// empty unit lists every unit.
type Store interface {
	Recorder
	Recent(ctx context.Context, unit string, limit int) ([]Summary, error)
}

// NopRecorder drops every run.
type NopRecorder struct{}

func (NopRecorder) Record(_ context.Context, run Run) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		return uuid.New(), nil
	}
	return run.ID, nil
}

// MemoryRecorder keeps runs in memory for tests.
type MemoryRecorder struct {
	mu   sync.Mutex
	runs []Run
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{runs: []Run{}}
}

func (m *MemoryRecorder) Record(_ context.Context, run Run) (uuid.UUID, error) {
	if err := run.normalize(); err != nil {
		return uuid.Nil, err
	}

	m.mu.Lock()
	m.runs = append(m.runs, run)
	m.mu.Unlock()
	return run.ID, nil
}

// Runs returns a copy of the recorded runs.
func (m *MemoryRecorder) Runs() []Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Run{}, m.runs...)
}

// PostgresRecorder inserts runs into generation_runs.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// EnsureSchema creates the generation_runs table when missing.
func (p *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return fmt.Errorf("history pool is nil")
	}
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating history schema: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) Record(ctx context.Context, run Run) (uuid.UUID, error) {
	if p == nil || p.pool == nil {
		return uuid.Nil, fmt.Errorf("history pool is nil")
	}
	if err := run.normalize(); err != nil {
		return uuid.Nil, err
	}

	alloc, err := json.Marshal(run.Allocation)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal allocation: %w", err)
	}
	unused := run.UnusedPool
	if unused == nil {
		unused = []string{}
	}
	pool, err := json.Marshal(unused)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal unused pool: %w", err)
	}
	counts := run.Questions
	if counts == nil {
		counts = map[string]int{}
	}
	qs, err := json.Marshal(counts)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal question counts: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	s := run.summary()
	_, err = p.pool.Exec(ctx,
		`INSERT INTO generation_runs
		   (id, unit, mode, weeks, lessons, output_path, allocation, unused_pool, questions, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10, $11)`,
		run.ID.String(), s.Unit, string(s.Mode), s.Weeks, s.Lessons, s.OutputPath,
		string(alloc), string(pool), string(qs), run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	slog.Debug("generation run recorded", "id", run.ID, "unit", run.Unit, "weeks", s.Weeks)
	return run.ID, nil
}

// Recent lists the latest runs, newest first. An empty unit lists all.
func (p *PostgresRecorder) Recent(ctx context.Context, unit string, limit int) ([]Summary, error) {
	if p == nil || p.pool == nil {
		return nil, fmt.Errorf("history pool is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT id::text, unit, mode, weeks, lessons, output_path, started_at
		 FROM generation_runs
		 WHERE $1 = '' OR unit = $1
		 ORDER BY started_at DESC
		 LIMIT $2`,
		unit, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s    Summary
			id   string
			mode string
		)
		if err := rows.Scan(&id, &s.Unit, &mode, &s.Weeks, &s.Lessons, &s.OutputPath, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}
		s.Mode = Mode(mode)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent lists the recorded runs newest first.
func (m *MemoryRecorder) Recent(_ context.Context, unit string, limit int) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var out []Summary
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if unit == "" || m.runs[i].Unit == unit {
			out = append(out, m.runs[i].summary())
		}
	}
	return out, nil
}
