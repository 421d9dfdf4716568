// Package catalog reads unit lesson catalogs from planning workbooks and
// structured files.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/core-knowledge/internal/lesson"
)

// ErrNoLessonColumn is returned when no column of lesson codes is found.
var ErrNoLessonColumn = errors.New("no lesson code column found")

var codePattern = regexp.MustCompile(`^[A-Z]\d+\.\d+\.\d+`)

const (
	headerScanRows = 20
	codeScanFrom   = 5
	codeScanTo     = 20
)

// Option configures workbook parsing.
type Option func(*options)

type options struct {
	sheet string
}

// WithSheet reads the named sheet instead of the first one.
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}

// ReadWorkbook opens an .xlsx unit plan and parses its lessons.
func ReadWorkbook(path string, opts ...Option) (lesson.Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	c, err := ParseWorkbook(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return c, nil
}

// ParseWorkbook extracts lessons from an open workbook.
//
// The keyword column is the first header cell in the top rows mentioning
// both "keyword" and "introduc". Lesson codes are found by scanning rows
// 5-19 for a code like C4.3.1; the title sits in the next column.
// Titles marked "(HT)" or starting "Taking it Further" are extension only.
func ParseWorkbook(f *excelize.File, opts ...Option) (lesson.Catalog, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sheet := o.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	keywordCol := findKeywordColumn(rows)
	codeCol, start := findCodeColumn(rows)
	if codeCol < 0 {
		return nil, ErrNoLessonColumn
	}
	if keywordCol < 0 {
		slog.Warn("no keyword column found, lessons will have no keywords", "sheet", sheet)
	}

	catalog := lesson.Catalog{}
	for r := start; r < len(rows); r++ {
		code := firstLine(cell(rows[r], codeCol))
		if !codePattern.MatchString(code) {
			continue
		}

		title := strings.TrimSpace(cell(rows[r], codeCol+1))
		tier := lesson.TierCore
		if strings.Contains(strings.ToUpper(title), "(HT)") || strings.HasPrefix(title, "Taking it Further") {
			tier = lesson.TierExtension
		}

		var keywords []string
		if keywordCol >= 0 {
			keywords = SplitKeywords(cell(rows[r], keywordCol))
		}

		catalog.Add(lesson.Lesson{
			Code:     code,
			Title:    title,
			Tier:     tier,
			Keywords: keywords,
		})
	}

	core, ext := catalog.KeywordCounts()
	slog.Info("lesson catalog read",
		"sheet", sheet,
		"lessons", len(catalog),
		"core_words", core,
		"extension_words", ext,
	)
	return catalog, nil
}

// SplitKeywords splits a keyword cell on line breaks, then commas, and
// drops placeholders such as "none" and "n/a".
func SplitKeywords(text string) []string {
	text = strings.TrimSpace(text)
	if isPlaceholder(text) {
		return nil
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if isPlaceholder(line) {
			continue
		}
		if !strings.Contains(line, ",") {
			out = append(out, line)
			continue
		}
		for _, part := range strings.Split(line, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func isPlaceholder(s string) bool {
	switch strings.ToLower(s) {
	case "", "none", "nan", "n/a":
		return true
	}
	return false
}

func findKeywordColumn(rows [][]string) int {
	for r := 0; r < len(rows) && r < headerScanRows; r++ {
		for c, v := range rows[r] {
			low := strings.ToLower(v)
			if strings.Contains(low, "keyword") && strings.Contains(low, "introduc") {
				return c
			}
		}
	}
	return -1
}

func findCodeColumn(rows [][]string) (col, start int) {
	for r := codeScanFrom; r < len(rows) && r < codeScanTo; r++ {
		for c, v := range rows[r] {
			if codePattern.MatchString(strings.TrimSpace(v)) {
				return c, r
			}
		}
	}
	return -1, -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
