// Package generator runs a whole Core Knowledge generation: locate unit
// resources, build the weekly allocation, write questions, export and
// record the run.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
	"github.com/p-n-ai/core-knowledge/internal/booklet"
	"github.com/p-n-ai/core-knowledge/internal/catalog"
	"github.com/p-n-ai/core-knowledge/internal/export"
	"github.com/p-n-ai/core-knowledge/internal/history"
	"github.com/p-n-ai/core-knowledge/internal/lesson"
	"github.com/p-n-ai/core-knowledge/internal/questions"
	"github.com/p-n-ai/core-knowledge/internal/resources"
)

// ErrNothingToGenerate is returned when the inputs yield no weeks.
var ErrNothingToGenerate = errors.New("nothing to generate")

// MultiUnit labels documents whose weeks span several units.
const MultiUnit = "Multi"

// Format is the output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts "", "xlsx" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Request describes one generation.
type Request struct {
	// Unit is required unless Weeks is given.
	Unit string
	// Weeks switches to explicit mode. Codes may span units.
	Weeks      [][]string
	MaxWeeks   int
	Repetition allocation.Repetition
	// ExtraPool words are appended to the booklet vocabulary.
	ExtraPool []string
	Format    Format
	// OutputDir overrides the service default.
	OutputDir string
}

// Result is a finished generation.
type Result struct {
	RunID      uuid.UUID
	Unit       string
	UnitName   string
	Mode       history.Mode
	OutputPath string
	Allocation allocation.Allocation
	UnusedPool []string
	Questions  *questions.Bank
	State      *questions.StateSet
}

// Service runs generations against a lesson resources tree.
type Service struct {
	root      string
	specDir   string
	outputDir string
	questions *questions.Generator
	recorder  history.Recorder
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSpecDir points at the exam board specification JSON files.
func WithSpecDir(dir string) Option {
	return func(s *Service) { s.specDir = dir }
}

// WithOutputDir sets the default output directory.
func WithOutputDir(dir string) Option {
	return func(s *Service) { s.outputDir = dir }
}

// WithQuestions sets the question generator.
func WithQuestions(g *questions.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.questions = g
		}
	}
}

// WithRecorder sets where runs are recorded.
func WithRecorder(r history.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service reading units under root.
func New(root string, opts ...Option) *Service {
	s := &Service{
		root:      root,
		outputDir: ".",
		questions: questions.NewGenerator(nil),
		recorder:  history.NopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sources is everything read from disk for one generation.
type sources struct {
	unit     string
	unitName string
	units    []string
	catalog  lesson.Catalog
	glossary *booklet.Glossary
	prompts  map[string][]booklet.StatePrompt
	spec     []resources.SpecLine
}

// Run performs one generation.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	started := s.now()

	var (
		src   sources
		mode  history.Mode
		weeks [][]string
		err   error
	)
	switch {
	case len(req.Weeks) == 0:
		if strings.TrimSpace(req.Unit) == "" {
			return Result{}, fmt.Errorf("a unit or week assignments are required")
		}
		mode = history.ModeAuto
		src, err = s.loadUnit(req.Unit)
	default:
		codes := assignmentCodes(req.Weeks)
		if len(codes) == 0 {
			return Result{}, fmt.Errorf("%w: no lesson codes in week assignments", ErrNothingToGenerate)
		}
		units := unitsOf(codes)
		if len(units) == 1 && (req.Unit == "" || strings.EqualFold(req.Unit, units[0])) {
			mode = history.ModeExplicit
			src, err = s.loadUnit(units[0])
		} else {
			mode = history.ModeMulti
			src, err = s.loadCodes(codes)
		}
		if err == nil {
			weeks = expandWeeks(src.catalog, req.Weeks)
		}
	}
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	pool := append(src.glossary.Words(), req.ExtraPool...)
	opts := []allocation.Option{allocation.WithRepetition(req.Repetition)}

	var alloc allocation.Allocation
	if mode == history.ModeAuto {
		alloc = allocation.BuildAuto(src.catalog, pool, req.MaxWeeks, opts...)
	} else {
		alloc = allocation.BuildFromAssignments(src.catalog, pool, weeks, opts...)
	}
	if alloc.Empty() {
		return Result{}, fmt.Errorf("%w: no weeks created for %s", ErrNothingToGenerate, src.unit)
	}

	unused := alloc.UnusedPoolWords(pool)
	slog.Info("allocation built",
		"unit", src.unit,
		"mode", string(mode),
		"weeks", len(alloc.Weeks),
		"lessons", len(alloc.Lessons()),
		"pool", len(pool),
		"unused_pool", len(unused),
	)

	bank, err := s.questions.Generate(ctx, questions.Request{
		Unit:     src.unit,
		UnitName: src.unitName,
		Subject:  subjectOf(src.units),
		Keywords: alloc.Words(),
		Glossary: src.glossary,
		Spec:     src.spec,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generating questions: %w", err)
	}
	state := s.questions.State(src.prompts, src.glossary, src.spec)

	format := req.Format
	if format == "" {
		format = FormatXLSX
	}
	dir := req.OutputDir
	if dir == "" {
		dir = s.outputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}
	outPath := filepath.Join(dir, OutputName(src.unit, format))

	doc := export.Document{
		Unit:       src.unit,
		UnitName:   src.unitName,
		Generated:  started,
		Allocation: alloc,
		Questions:  bank,
		State:      state,
		UnusedPool: unused,
	}
	if err := write(outPath, format, doc); err != nil {
		return Result{}, err
	}

	res := Result{
		Unit:       src.unit,
		UnitName:   src.unitName,
		Mode:       mode,
		OutputPath: outPath,
		Allocation: alloc,
		UnusedPool: unused,
		Questions:  bank,
		State:      state,
	}
	res.RunID, err = s.recorder.Record(ctx, history.Run{
		Unit:       src.unit,
		Mode:       mode,
		OutputPath: outPath,
		Allocation: alloc,
		UnusedPool: unused,
		Questions: map[string]int{
			string(questions.SourceAI):       bank.Count(questions.SourceAI),
			string(questions.SourceCache):    bank.Count(questions.SourceCache),
			string(questions.SourceTemplate): bank.Count(questions.SourceTemplate),
			"state":                          state.Len(),
		},
		StartedAt:  started,
		FinishedAt: s.now(),
	})
	if err != nil {
		slog.Warn("recording run failed", "unit", src.unit, "error", err)
	}
	return res, nil
}

// OutputName is the file name for a unit's document: C4.3 becomes
// C4_3_Core_Knowledge.xlsx.
func OutputName(unit string, format Format) string {
	if format == "" {
		format = FormatXLSX
	}
	return strings.ReplaceAll(unit, ".", "_") + "_Core_Knowledge." + string(format)
}

func write(path string, format Format, doc export.Document) error {
	if format == FormatJSON {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := export.WriteJSON(f, doc); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return export.WriteWorkbook(path, doc)
}

func (s *Service) loadUnit(code string) (sources, error) {
	u, err := resources.FindUnit(s.root, code)
	if err != nil {
		return sources{}, err
	}
	cat, err := catalog.ReadWorkbook(u.Workbook)
	if err != nil {
		return sources{}, err
	}
	if len(cat) == 0 {
		return sources{}, fmt.Errorf("%w: no lessons in %s", ErrNothingToGenerate, filepath.Base(u.Workbook))
	}

	glossary, prompts := s.readBooklet(u, cat)
	src := sources{
		unit:     u.Code,
		unitName: u.Name,
		units:    []string{u.Code},
		catalog:  cat,
		glossary: glossary,
		prompts:  prompts,
		spec:     s.readSpec(u.Code),
	}
	return src, nil
}

// loadCodes merges the lessons named by codes from every unit they
// belong to. Units that cannot be found are skipped.
func (s *Service) loadCodes(codes []string) (sources, error) {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}

	src := sources{
		unit:     MultiUnit,
		catalog:  lesson.Catalog{},
		glossary: booklet.NewGlossary(),
		prompts:  make(map[string][]booklet.StatePrompt),
	}
	for _, unit := range unitsOf(codes) {
		u, err := resources.FindUnit(s.root, unit)
		if err != nil {
			slog.Warn("skipping unit", "unit", unit, "error", err)
			continue
		}
		cat, err := catalog.ReadWorkbook(u.Workbook)
		if err != nil {
			slog.Warn("skipping unit", "unit", unit, "error", err)
			continue
		}
		for code, l := range cat {
			if wanted[code] || wanted[lesson.BaseCode(code)] {
				src.catalog.Add(l)
			}
		}
		src.units = append(src.units, u.Code)
		glossary, prompts := s.readBooklet(u, cat)
		src.glossary.Merge(glossary)
		for code, ps := range prompts {
			if _, ok := src.catalog[code]; ok {
				src.prompts[code] = ps
			}
		}
		src.spec = append(src.spec, s.readSpec(u.Code)...)
	}

	if len(src.catalog) == 0 {
		return sources{}, fmt.Errorf("%w: no lessons found for %s", ErrNothingToGenerate, strings.Join(codes, ", "))
	}
	src.unitName = "Multiple units (" + strings.Join(src.units, ", ") + ")"
	return src, nil
}

// readBooklet returns the unit's glossary and the "State ..." prompts of
// its outcome tables, matched to the catalog's teachable lessons in order.
func (s *Service) readBooklet(u resources.Unit, cat lesson.Catalog) (*booklet.Glossary, map[string][]booklet.StatePrompt) {
	if u.Booklet == "" {
		return booklet.NewGlossary(), nil
	}
	b, err := booklet.Open(u.Booklet)
	if err != nil {
		slog.Warn("preparation booklet unreadable, continuing without it", "unit", u.Code, "path", u.Booklet, "error", err)
		return booklet.NewGlossary(), nil
	}
	g := b.Glossary()
	prompts := b.StatePrompts(cat.Teachable())
	if g.Len() > 0 || len(prompts) > 0 {
		slog.Info("preparation booklet read", "unit", u.Code, "definitions", g.Len(), "state_lessons", len(prompts))
	}
	return g, prompts
}

func (s *Service) readSpec(unit string) []resources.SpecLine {
	lines, err := resources.SpecContent(s.specDir, unit)
	if err != nil {
		slog.Warn("specification unreadable", "unit", unit, "error", err)
		return nil
	}
	return lines
}

func subjectOf(units []string) string {
	if len(units) == 0 {
		return "Science"
	}
	subject := lesson.Subject(units[0])
	for _, u := range units[1:] {
		if lesson.Subject(u) != subject {
			return "Science"
		}
	}
	return subject
}
