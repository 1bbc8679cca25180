package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/okian/atscore/internal/adapters/extract"
)

var supportedExt = []string{".pdf", ".docx", ".txt", ".md", ".html", ".htm"}

// Expand returns the explicit paths followed by every supported file
// directly inside dir, without duplicates.
func Expand(paths []string, dir string) ([]string, error) {
	out := slices.Clone(paths)
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !slices.Contains(supportedExt, strings.ToLower(filepath.Ext(e.Name()))) {
				continue
			}
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(out[len(paths):])
	seen := make(map[string]bool, len(out))
	return slices.DeleteFunc(out, func(p string) bool {
		clean := filepath.Clean(p)
		if seen[clean] {
			return true
		}
		seen[clean] = true
		return false
	}), nil
}

// Load reads and extracts one document.
func Load(ctx context.Context, chain *extract.Chain, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	res, err := chain.Extract(ctx, filepath.Base(path), data)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", path, err)
	}
	return Document{
		Name:       filepath.Base(path),
		Path:       path,
		Text:       res.Text,
		Method:     res.Method,
		Confidence: res.Confidence,
	}, nil
}

// LoadAll loads every path. Documents that fail are reported as failed
// results so the batch can continue with the rest.
func LoadAll(ctx context.Context, chain *extract.Chain, paths []string) ([]Document, []Result) {
	docs := make([]Document, 0, len(paths))
	var failed []Result
	for _, p := range paths {
		d, err := Load(ctx, chain, p)
		if err != nil {
			failed = append(failed, Result{Name: filepath.Base(p), Error: err.Error()})
			continue
		}
		docs = append(docs, d)
	}
	return docs, failed
}
