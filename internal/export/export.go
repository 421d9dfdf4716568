// Package export writes a finished allocation as a Core Knowledge
// workbook or as JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/core-knowledge/internal/allocation"
	"github.com/p-n-ai/core-knowledge/internal/questions"
)

const (
	weeksSheet   = "Weeks"
	summarySheet = "Summary"
	highlight    = "FFFF00"
)

// Questioner supplies the question printed beside a word.
type Questioner interface {
	Text(keyword string) string
}

// Document is everything needed to render one output.
type Document struct {
	Unit       string
	UnitName   string
	Generated  time.Time
	Allocation allocation.Allocation
	Questions  Questioner
	State      *questions.StateSet
	UnusedPool []string
}

// Title is the heading used for the document.
func (d Document) Title() string {
	if d.UnitName == "" {
		return d.Unit + ": Core Knowledge"
	}
	return fmt.Sprintf("%s – %s: Core Knowledge", d.Unit, d.UnitName)
}

func (d Document) question(word string) string {
	if d.Questions == nil {
		return ""
	}
	return d.Questions.Text(word)
}

// Workbook renders the document. The Weeks sheet has one row per word;
// extension rows are filled yellow. A week's "State" rows follow its words,
// with the answer in the Word column.
func Workbook(doc Document) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), weeksSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeWeeks(f, doc); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s sheet: %w", weeksSheet, err)
	}
	if err := writeSummary(f, doc); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s sheet: %w", summarySheet, err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook renders the document to an .xlsx file at path.
func WriteWorkbook(path string, doc Document) error {
	f, err := Workbook(doc)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	slog.Info("core knowledge workbook written", "path", path, "unit", doc.Unit, "weeks", len(doc.Allocation.Weeks))
	return nil
}

func writeWeeks(f *excelize.File, doc Document) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	ext, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{highlight}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	header := []any{"Week", "Lessons", "Titles", "Tier", "Word", "Question"}
	if err := f.SetSheetRow(weeksSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(weeksSheet, "A1", "F1", bold); err != nil {
		return err
	}

	row := 2
	put := func(w allocation.Week, tier, word, question string, style int) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{w.Number, strings.Join(w.Lessons, ", "), strings.Join(w.Titles, "; "), tier, word, question}
		if err := f.SetSheetRow(weeksSheet, cell, &values); err != nil {
			return err
		}
		if style != 0 {
			end, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellStyle(weeksSheet, cell, end, style); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for _, w := range doc.Allocation.Weeks {
		for _, word := range w.CoreWords {
			if err := put(w, "Core", word, doc.question(word), 0); err != nil {
				return err
			}
		}
		for _, word := range w.ExtensionWords {
			if err := put(w, "Extension", word, doc.question(word), ext); err != nil {
				return err
			}
		}
		for _, it := range doc.State.Week(w.Lessons) {
			if err := put(w, "State", it.Answer, it.Question, 0); err != nil {
				return err
			}
		}
	}

	for col, width := range map[string]float64{"A": 7, "B": 24, "C": 48, "D": 11, "E": 28, "F": 70} {
		if err := f.SetColWidth(weeksSheet, col, col, width); err != nil {
			return err
		}
	}
	return f.SetPanes(weeksSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, doc Document) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	core, extension, state := 0, 0, 0
	for _, w := range doc.Allocation.Weeks {
		core += len(w.CoreWords)
		extension += len(w.ExtensionWords)
		state += len(doc.State.Week(w.Lessons))
	}

	rows := [][]any{
		{"Title", doc.Title()},
		{"Unit", doc.Unit},
		{"Weeks", len(doc.Allocation.Weeks)},
		{"Lessons", len(doc.Allocation.Lessons())},
		{"Core words", core},
		{"Extension words", extension},
		{"Unused pool words", strings.Join(doc.UnusedPool, ", ")},
		{"State questions", state},
		{"Key", "Yellow rows are higher tier extension words (triple science only)"},
	}
	if !doc.Generated.IsZero() {
		rows = append(rows, []any{"Generated", doc.Generated.UTC().Format(time.RFC3339)})
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &r); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 20)
}

// WordEntry is a word and its question in JSON output.
type WordEntry struct {
	Word     string `json:"word"`
	Question string `json:"question,omitempty"`
}

// StateEntry is a "State ..." question and its answer in JSON output.
type StateEntry struct {
	Lesson   string `json:"lesson"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// WeekEntry is one week in JSON output.
type WeekEntry struct {
	Week      int          `json:"week"`
	Lessons   []string     `json:"lessons"`
	Titles    []string     `json:"titles"`
	Core      []WordEntry  `json:"core"`
	Extension []WordEntry  `json:"extension"`
	State     []StateEntry `json:"state,omitempty"`
}

// JSONDocument is the JSON form of a Document.
type JSONDocument struct {
	Unit       string      `json:"unit"`
	UnitName   string      `json:"unit_name,omitempty"`
	Generated  *time.Time  `json:"generated,omitempty"`
	Weeks      []WeekEntry `json:"weeks"`
	UnusedPool []string    `json:"unused_pool_words,omitempty"`
}

// JSON converts doc to its JSON form.
func JSON(doc Document) JSONDocument {
	out := JSONDocument{
		Unit:       doc.Unit,
		UnitName:   doc.UnitName,
		Weeks:      make([]WeekEntry, 0, len(doc.Allocation.Weeks)),
		UnusedPool: doc.UnusedPool,
	}
	if !doc.Generated.IsZero() {
		g := doc.Generated.UTC()
		out.Generated = &g
	}
	entries := func(words []string) []WordEntry {
		es := make([]WordEntry, len(words))
		for i, w := range words {
			es[i] = WordEntry{Word: w, Question: doc.question(w)}
		}
		return es
	}
	for _, w := range doc.Allocation.Weeks {
		var state []StateEntry
		for _, it := range doc.State.Week(w.Lessons) {
			state = append(state, StateEntry{Lesson: it.Lesson, Question: it.Question, Answer: it.Answer})
		}
		out.Weeks = append(out.Weeks, WeekEntry{
			Week:      w.Number,
			Lessons:   w.Lessons,
			Titles:    w.Titles,
			Core:      entries(w.CoreWords),
			Extension: entries(w.ExtensionWords),
			State:     state,
		})
	}
	return out
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(JSON(doc)); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}
