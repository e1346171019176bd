package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"advisor/internal/domain"
)

// Loader reads product records from JSON catalog files matched by a glob.
type Loader struct {
	pattern string
}

func NewLoader(pattern string) *Loader {
	return &Loader{pattern: pattern}
}

// productFile matches both feed shapes seen in practice: a bare array of
// records, or an object wrapping them under "products".
type productFile struct {
	Products []domain.ProductRecord `json:"products"`
}

// Load reads all matching files and returns their records in file-name order.
// No matching files, or matching files that yield zero records, is an error:
// an empty catalog cannot back a useful index.
func (l *Loader) Load() ([]domain.ProductRecord, error) {
	base, pattern := doublestar.SplitPattern(filepath.ToSlash(l.pattern))

	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid source pattern %q: %w", l.pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no catalog files match %q", l.pattern)
	}
	sort.Strings(matches)

	var records []domain.ProductRecord
	for _, m := range matches {
		path := filepath.Join(base, filepath.FromSlash(m))
		rs, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("catalog files matching %q contain no products", l.pattern)
	}
	return records, nil
}

func loadFile(path string) ([]domain.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var records []domain.ProductRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped productFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return wrapped.Products, nil
}
