// Package fileid derives document ids from corpus file paths.
package fileid

import (
	"path"
	"path/filepath"
	"strings"
)

// DocID returns the id of the file at p inside the corpus directory root: the
// slash-separated path relative to root. Paths outside root keep their full
// cleaned, slash-separated form so they cannot collide with relative ids.
func DocID(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(p))
	}
	return filepath.ToSlash(rel)
}

// RootLabels returns the id prefix for each corpus root. A single root gets
// no prefix. With several roots each gets its base name, or its full
// slash-separated path when base names collide, so files in different roots
// never share an id.
func RootLabels(roots []string) []string {
	labels := make([]string, len(roots))
	if len(roots) < 2 {
		return labels
	}
	seen := make(map[string]int, len(roots))
	for i, r := range roots {
		labels[i] = filepath.Base(filepath.Clean(r))
		seen[labels[i]]++
	}
	for i, r := range roots {
		if seen[labels[i]] > 1 {
			labels[i] = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(r)), "/")
		}
	}
	return labels
}

// Prefixed joins a root label and an id relative to that root.
func Prefixed(label, id string) string {
	if label == "" {
		return id
	}
	return path.Join(label, id)
}

// Title returns the display title for an id: its last path element.
func Title(id string) string {
	return path.Base(id)
}
