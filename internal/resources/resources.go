// Package resources locates the per-unit files under the lesson resources
// root: the unit plan workbook, the preparation booklet and the exam board
// specification content.
package resources

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrUnitNotFound is returned when no folder under the root matches a unit.
var ErrUnitNotFound = errors.New("unit not found")

const guidanceDir = "Unit Guidance"

var unitPattern = regexp.MustCompile(`^[A-Z]\d+\.\d+`)

// Unit is the resolved set of files for one unit.
type Unit struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Dir      string `json:"dir"`
	Workbook string `json:"workbook"`
	Booklet  string `json:"booklet,omitempty"`
}

// ListUnits returns the sorted unit codes of every folder whose first
// token looks like a unit code. A missing root yields no units.
func ListUnits(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing units: %w", err)
	}

	seen := map[string]bool{}
	var units []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		fields := strings.Fields(e.Name())
		if len(fields) == 0 || !unitPattern.MatchString(fields[0]) || seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		units = append(units, fields[0])
	}
	sort.Strings(units)
	return units, nil
}

// FindUnit resolves the folder for code and the files inside its Unit
// Guidance directory.
func FindUnit(root, code string) (Unit, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Unit{}, fmt.Errorf("reading lesson resources: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	folder := ""
	for _, d := range dirs {
		if strings.HasPrefix(strings.ToUpper(d), strings.ToUpper(code)) {
			folder = d
			break
		}
	}
	if folder == "" {
		return Unit{}, fmt.Errorf("%w: %q (available: %s)", ErrUnitNotFound, code, strings.Join(dirs, ", "))
	}

	u := Unit{Code: code, Name: folder, Dir: filepath.Join(root, folder)}
	if fields := strings.Fields(folder); len(fields) > 0 {
		u.Code = fields[0]
		if len(fields) > 1 {
			u.Name = strings.Join(fields[1:], " ")
		}
	}

	guidance := filepath.Join(u.Dir, guidanceDir)
	if info, err := os.Stat(guidance); err != nil || !info.IsDir() {
		return Unit{}, fmt.Errorf("no %q folder in %s", guidanceDir, u.Dir)
	}

	u.Workbook, err = firstWorkbook(guidance)
	if err != nil {
		return Unit{}, err
	}
	u.Booklet = findBooklet(guidance, u.Code)
	return u, nil
}

func firstWorkbook(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || found != "" {
			return nil
		}
		name := d.Name()
		if strings.EqualFold(filepath.Ext(name), ".xlsx") && !strings.HasPrefix(name, "~$") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", dir, err)
	}
	if found == "" {
		return "", fmt.Errorf("no .xlsx in %s", dir)
	}
	return found, nil
}

func findBooklet(guidance, code string) string {
	name := code + " Unit Preparation Booklet"
	for _, p := range []string{
		filepath.Join(guidance, name+".docx"),
		filepath.Join(guidance, name, name+".docx"),
	} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
