package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SpecLine is one statement of the exam board specification content.
type SpecLine struct {
	Content string `json:"content"`
	Higher  bool   `json:"higher"`
}

type specDocument struct {
	Topics []struct {
		Section     string `json:"section"`
		Subsections []struct {
			Foundation []specItem `json:"foundation_content"`
			Higher     []specItem `json:"higher_content"`
		} `json:"subsections"`
	} `json:"topics"`
}

type specItem struct {
	Content string `json:"content"`
	Text    string `json:"text"`
}

func (s specItem) line() string {
	if s.Content != "" {
		return s.Content
	}
	return s.Text
}

var digits = regexp.MustCompile(`\d+`)

// SpecSection maps a unit code to its specification section:
// C4.3 → 5.3 (chemistry), B3.2 → 4.2 (biology). Physics has none.
func SpecSection(unit string) (file, section string, ok bool) {
	u := strings.ToUpper(strings.TrimSpace(unit))
	parts := digits.FindAllString(u, -1)
	if len(parts) == 0 {
		return "", "", false
	}
	last := parts[len(parts)-1]
	switch {
	case strings.HasPrefix(u, "C"):
		return "chemistry.json", "5." + last, true
	case strings.HasPrefix(u, "B"):
		return "biology.json", "4." + last, true
	}
	return "", "", false
}

// SpecContent reads the foundation and higher content for unit from the
// specification directory. Missing files yield no lines.
func SpecContent(dir, unit string) ([]SpecLine, error) {
	file, section, ok := SpecSection(unit)
	if !ok || dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading specification: %w", err)
	}

	var doc specDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file, err)
	}

	var out []SpecLine
	for _, topic := range doc.Topics {
		if topic.Section != section {
			continue
		}
		for _, sub := range topic.Subsections {
			for _, it := range sub.Foundation {
				if c := it.line(); c != "" {
					out = append(out, SpecLine{Content: c})
				}
			}
			for _, it := range sub.Higher {
				if c := it.line(); c != "" {
					out = append(out, SpecLine{Content: c, Higher: true})
				}
			}
		}
		break
	}
	return out, nil
}
