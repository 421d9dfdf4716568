// Package booklet reads a unit preparation booklet (.docx): the
// word/definition tables that supply the vocabulary pool, and the lesson
// outcome tables whose "State ..." example questions are printed per week.
package booklet

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"

	"github.com/p-n-ai/core-knowledge/internal/vocab"
)

// Definition is one vocabulary row of a booklet table.
type Definition struct {
	Word string `json:"word" yaml:"word"`
	Text string `json:"definition" yaml:"definition"`
}

// Glossary is an ordered set of definitions keyed by normalized word.
type Glossary struct {
	defs  []Definition
	index map[string]int
}

// NewGlossary builds a glossary. A repeated word keeps its first position
// and takes the later definition.
func NewGlossary(defs ...Definition) *Glossary {
	g := &Glossary{index: make(map[string]int)}
	for _, d := range defs {
		g.Add(d)
	}
	return g
}

// Add inserts or updates a definition.
func (g *Glossary) Add(d Definition) {
	key := vocab.Normalize(d.Word)
	if key == "" {
		return
	}
	if i, ok := g.index[key]; ok {
		g.defs[i].Text = d.Text
		return
	}
	g.index[key] = len(g.defs)
	g.defs = append(g.defs, d)
}

// Merge appends definitions of other whose words are not yet present.
func (g *Glossary) Merge(other *Glossary) {
	if other == nil {
		return
	}
	for _, d := range other.defs {
		if _, ok := g.index[vocab.Normalize(d.Word)]; !ok {
			g.Add(d)
		}
	}
}

// Lookup returns the definition of word.
func (g *Glossary) Lookup(word string) (Definition, bool) {
	if g == nil {
		return Definition{}, false
	}
	i, ok := g.index[vocab.Normalize(word)]
	if !ok {
		return Definition{}, false
	}
	return g.defs[i], true
}

// Len returns the number of words.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.defs)
}

// Definitions returns the definitions in booklet order.
func (g *Glossary) Definitions() []Definition {
	if g == nil {
		return nil
	}
	return append([]Definition(nil), g.defs...)
}

// Words returns the glossary words in booklet order; this is the
// supplemental pool used to top up weekly core lists.
func (g *Glossary) Words() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.defs))
	for i, d := range g.defs {
		out[i] = d.Word
	}
	return out
}

// Booklet is the table text of a preparation booklet, one entry per
// top-level table. Paragraphs within a cell are joined with newlines.
type Booklet struct {
	tables [][][]string
}

// Open parses the .docx booklet at path.
func Open(path string) (*Booklet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening booklet: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening booklet: %w", err)
	}
	return Parse(f, info.Size())
}

// Parse reads a .docx booklet held in r.
func Parse(r io.ReaderAt, size int64) (*Booklet, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parsing booklet: %w", err)
	}

	b := &Booklet{}
	for _, item := range doc.Document.Body.Items {
		if t, ok := item.(*docx.Table); ok {
			b.tables = append(b.tables, tableText(t))
		}
	}
	return b, nil
}

func tableText(t *docx.Table) [][]string {
	rows := make([][]string, 0, len(t.TableRows))
	for _, r := range t.TableRows {
		cells := make([]string, 0, len(r.TableCells))
		for _, c := range r.TableCells {
			paras := make([]string, 0, len(c.Paragraphs))
			for _, p := range c.Paragraphs {
				paras = append(paras, p.String())
			}
			cells = append(cells, strings.Join(paras, "\n"))
		}
		rows = append(rows, cells)
	}
	return rows
}

// Glossary returns the vocabulary rows of every table except the lesson
// outcome tables.
func (b *Booklet) Glossary() *Glossary {
	g := NewGlossary()
	if b == nil {
		return g
	}
	for _, t := range b.tables {
		if _, outcomes := exampleColumn(t); outcomes {
			continue
		}
		for _, cells := range t {
			if len(cells) < 2 {
				continue
			}
			word := strings.TrimSpace(cells[0])
			text := strings.TrimSpace(cells[1])
			if keep(word, text) {
				g.Add(Definition{Word: word, Text: text})
			}
		}
	}
	return g
}

// ReadDefinitions reads the vocabulary tables of a .docx booklet.
// An empty path yields an empty glossary.
func ReadDefinitions(path string) (*Glossary, error) {
	if path == "" {
		return NewGlossary(), nil
	}
	b, err := Open(path)
	if err != nil {
		return nil, err
	}
	return b.Glossary(), nil
}

// ParseDefinitions reads the vocabulary tables of a .docx held in memory.
func ParseDefinitions(r io.ReaderAt, size int64) (*Glossary, error) {
	b, err := Parse(r, size)
	if err != nil {
		return nil, err
	}
	return b.Glossary(), nil
}

// keep applies the booklet table rules: no headers, no TBAT outcome rows,
// short single terms with a real definition.
func keep(word, text string) bool {
	if word == "" || text == "" {
		return false
	}
	switch strings.ToLower(word) {
	case "word", "definition", "term", "vocabulary":
		return false
	}
	if strings.HasPrefix(strings.ToUpper(word), "TBAT") || strings.HasPrefix(strings.ToUpper(text), "TBAT") {
		return false
	}
	if utf8.RuneCountInString(word) > 50 || strings.Contains(word, ",") || utf8.RuneCountInString(text) < 15 {
		return false
	}
	n := len(strings.Fields(word))
	return vocab.Normalize(word) != "" && n >= 1 && n <= 4
}

// ReadWordList reads a plain pool file: one word per line, blank lines
// and lines starting with # ignored.
func ReadWordList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	return out, nil
}
