package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/core-knowledge/internal/lesson"
)

// File is the structured catalog format used for YAML and JSON sources.
type File struct {
	Unit    string          `yaml:"unit" json:"unit"`
	Name    string          `yaml:"name" json:"name"`
	Lessons []lesson.Lesson `yaml:"lessons" json:"lessons"`
}

// Catalog returns the file's lessons keyed by code.
func (f File) Catalog() lesson.Catalog {
	c := make(lesson.Catalog, len(f.Lessons))
	for _, l := range f.Lessons {
		if l.Code == "" {
			continue
		}
		c.Add(l)
	}
	return c
}

// Load reads a catalog from an .xlsx, .yaml/.yml or .json file.
func Load(path string) (lesson.Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path)
	case ".yaml", ".yml":
		f, err := LoadYAML(path)
		if err != nil {
			return nil, err
		}
		return f.Catalog(), nil
	case ".json":
		f, err := LoadJSON(path)
		if err != nil {
			return nil, err
		}
		return f.Catalog(), nil
	default:
		return nil, fmt.Errorf("unsupported catalog file %q", path)
	}
}

// LoadYAML reads a YAML catalog file.
func LoadYAML(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return f, nil
}

// LoadJSON reads a JSON catalog file.
func LoadJSON(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return f, nil
}
