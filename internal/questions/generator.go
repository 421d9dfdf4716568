// Package questions writes one short revision question per keyword, using
// an AI provider when available and stock templates otherwise.
package questions

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/p-n-ai/core-knowledge/internal/ai"
	"github.com/p-n-ai/core-knowledge/internal/booklet"
	"github.com/p-n-ai/core-knowledge/internal/resources"
	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

const (
	defaultBatchSize = 15
	maxSpecLines     = 30
	maxWords         = 18
)

// Source records where a question came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceCache    Source = "cache"
	SourceTemplate Source = "template"
)

// Question is the question printed next to a keyword.
type Question struct {
	Keyword string `json:"keyword"`
	Text    string `json:"question"`
	Source  Source `json:"source"`
}

// Bank holds questions keyed by normalized keyword.
type Bank struct {
	subject string
	items   map[string]Question
	order   []string
}

func newBank(subject string) *Bank {
	return &Bank{subject: subject, items: make(map[string]Question)}
}

func (b *Bank) put(q Question) {
	key := vocab.Normalize(q.Keyword)
	if _, ok := b.items[key]; !ok {
		b.order = append(b.order, key)
	}
	b.items[key] = q
}

// Lookup returns the question for keyword.
func (b *Bank) Lookup(keyword string) (Question, bool) {
	if b == nil {
		return Question{}, false
	}
	q, ok := b.items[vocab.Normalize(keyword)]
	return q, ok
}

// Text returns the question for keyword, falling back to a template for
// words the bank never saw.
func (b *Bank) Text(keyword string) string {
	if q, ok := b.Lookup(keyword); ok {
		return q.Text
	}
	subject := ""
	if b != nil {
		subject = b.subject
	}
	return Template(keyword, subject)
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.order)
}

// Questions returns the questions in the order they were requested.
func (b *Bank) Questions() []Question {
	if b == nil {
		return nil
	}
	out := make([]Question, len(b.order))
	for i, k := range b.order {
		out[i] = b.items[k]
	}
	return out
}

// Count returns how many questions came from src.
func (b *Bank) Count(src Source) int {
	n := 0
	for _, q := range b.Questions() {
		if q.Source == src {
			n++
		}
	}
	return n
}

// Request describes one question-writing job.
type Request struct {
	// Unit keys the cache and the token budget ("C4.3", or "Multi").
	Unit     string
	UnitName string
	Subject  string
	Keywords []string
	Glossary *booklet.Glossary
	Spec     []resources.SpecLine
}

// Generator writes questions for keywords.
type Generator struct {
	ai        ai.Completer
	budget    ai.BudgetChecker
	cache     Cache
	check     Check
	batchSize int
	model     string
}

// Option configures a Generator.
type Option func(*Generator)

// WithBudget stops AI batches once the unit's token budget is spent.
func WithBudget(b ai.BudgetChecker) Option {
	return func(g *Generator) { g.budget = b }
}

// WithCache reuses questions across runs.
func WithCache(c Cache) Option {
	return func(g *Generator) { g.cache = c }
}

// WithCheck replaces the default MetaAnswer filter.
func WithCheck(c Check) Option {
	return func(g *Generator) {
		if c != nil {
			g.check = c
		}
	}
}

// WithBatchSize sets how many keywords go into one prompt.
func WithBatchSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithModel sets the model requested from the provider.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// NewGenerator creates a Generator. A nil completer means every question
// comes from templates or the cache.
func NewGenerator(completer ai.Completer, opts ...Option) *Generator {
	g := &Generator{ai: completer, check: Acceptable, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one question per distinct keyword. Provider failures
// are logged and covered by templates; only context cancellation is
// returned as an error.
func (g *Generator) Generate(ctx context.Context, req Request) (*Bank, error) {
	bank := newBank(req.Subject)
	keywords := vocab.Dedupe(nonBlank(req.Keywords))

	var pending []string
	for _, kw := range keywords {
		if q, ok := g.cached(ctx, req.Unit, kw); ok {
			bank.put(Question{Keyword: kw, Text: q, Source: SourceCache})
			continue
		}
		pending = append(pending, kw)
	}

	if g.ai != nil && len(pending) > 0 {
		withDef := 0
		for _, kw := range pending {
			if _, ok := req.Glossary.Lookup(kw); ok {
				withDef++
			}
		}
		slog.Info("generating questions",
			"unit", req.Unit,
			"keywords", len(pending),
			"with_definition", withDef,
		)

		for start := 0; start < len(pending); start += g.batchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if g.budget != nil && !g.budget.Allow(req.Unit) {
				used, limit := g.budget.Usage(req.Unit)
				slog.Warn("token budget spent, using templates", "unit", req.Unit, "used", used, "limit", limit)
				break
			}

			batch := pending[start:min(start+g.batchSize, len(pending))]
			for kw, text := range g.writeBatch(ctx, req, batch) {
				bank.put(Question{Keyword: kw, Text: text, Source: SourceAI})
				if g.cache != nil {
					if err := g.cache.Set(ctx, req.Unit, kw, text); err != nil {
						slog.Warn("caching question failed", "unit", req.Unit, "keyword", kw, "error", err)
					}
				}
			}
		}
	}

	for _, kw := range keywords {
		if _, ok := bank.Lookup(kw); !ok {
			bank.put(Question{Keyword: kw, Text: Template(kw, req.Subject), Source: SourceTemplate})
		}
	}

	// keep requested order
	ordered := newBank(req.Subject)
	for _, kw := range keywords {
		q, _ := bank.Lookup(kw)
		ordered.put(q)
	}

	slog.Info("questions ready",
		"unit", req.Unit,
		"total", ordered.Len(),
		"ai", ordered.Count(SourceAI),
		"cache", ordered.Count(SourceCache),
		"template", ordered.Count(SourceTemplate),
	)
	return ordered, nil
}

func (g *Generator) cached(ctx context.Context, unit, kw string) (string, bool) {
	if g.cache == nil {
		return "", false
	}
	q, ok, err := g.cache.Get(ctx, unit, kw)
	if err != nil {
		slog.Warn("question cache read failed", "unit", unit, "keyword", kw, "error", err)
		return "", false
	}
	return q, ok && g.check(q)
}

// writeBatch returns accepted questions keyed by the batch keyword they
// answer.
func (g *Generator) writeBatch(ctx context.Context, req Request, batch []string) map[string]string {
	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: Prompt(req, batch)}},
		Model:       g.model,
		MaxTokens:   1200,
		Temperature: 0.3,
		Task:        ai.TaskQuestionWriting,
	})
	if err != nil {
		slog.Warn("question batch failed", "unit", req.Unit, "size", len(batch), "error", err)
		return nil
	}
	if g.budget != nil {
		if err := g.budget.Record(req.Unit, resp.TotalTokens()); err != nil {
			slog.Warn("recording token usage failed", "unit", req.Unit, "error", err)
		}
	}

	parsed := ParseResponse(resp.Content)
	out := make(map[string]string, len(batch))
	rejected := 0
	for _, kw := range batch {
		text, ok := parsed[vocab.Normalize(kw)]
		if !ok {
			continue
		}
		if !g.check(text) {
			rejected++
			continue
		}
		out[kw] = text
	}
	if rejected > 0 {
		slog.Debug("rejected generated questions", "unit", req.Unit, "count", rejected)
	}
	return out
}

// Prompt builds the question-writing prompt for one batch.
func Prompt(req Request, batch []string) string {
	subject := req.Subject
	if subject == "" {
		subject = "Science"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are writing revision quiz questions for GCSE %s (AQA). Unit: %s.\n", subject, req.UnitName)

	if len(req.Spec) > 0 {
		b.WriteString("\nAQA specification content for this unit (align wording with this):\n")
		for _, line := range req.Spec[:min(len(req.Spec), maxSpecLines)] {
			fmt.Fprintf(&b, "- %s\n", line.Content)
		}
	}

	fmt.Fprintf(&b, `
For each line below, write ONE short question whose correct answer is the keyword.
When a definition is given, base the question on that definition.
- Maximum %d words per question.
- AQA exam style.
- Output exactly one line per keyword in this format: keyword: question

`, maxWords)

	for _, kw := range batch {
		if d, ok := req.Glossary.Lookup(kw); ok {
			fmt.Fprintf(&b, "  %s | Definition: %s\n", kw, d.Text)
		} else {
			fmt.Fprintf(&b, "  %s | (no definition)\n", kw)
		}
	}
	b.WriteString("\nUse the exact keyword as given.")
	return b.String()
}

var listMarker = regexp.MustCompile(`^[\d.\-*\s]+`)

// ParseResponse reads "keyword: question" lines into a map keyed by
// normalized keyword. List markers before the keyword and quotes around
// the question are removed.
func ParseResponse(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		kw, q, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		kw = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(kw), ""))
		q = strings.Trim(strings.TrimSpace(q), `"'`)
		if kw == "" || q == "" {
			continue
		}
		out[vocab.Normalize(kw)] = q
	}
	return out
}

func nonBlank(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if vocab.Normalize(w) != "" {
			out = append(out, w)
		}
	}
	return out
}
