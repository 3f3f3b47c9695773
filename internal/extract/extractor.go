// Package extract turns document files into the plain text the index is built from.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

type extractFunc func(content []byte) (string, error)

// Extractor extracts plain text from document files by extension.
type Extractor struct {
	formats map[string]extractFunc
}

// NewExtractor returns an Extractor that knows every built-in format.
func NewExtractor() *Extractor {
	return &Extractor{formats: map[string]extractFunc{
		".txt":  extractPlain,
		".md":   extractPlain,
		".rst":  extractPlain,
		".docx": extractDOCX,
		".pptx": extractPPTX,
		".odt":  extractOpenDocument,
		".odp":  extractOpenDocument,
		".ods":  extractOpenDocument,
		".xlsx": extractExcel,
		".pdf":  extractPDF,
	}}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	ext := normalizeExt(filepath.Ext(path))
	if !e.Supports(ext) {
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on ext, which may omit the
// leading dot. An empty extension is treated as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = normalizeExt(ext)
	if ext == "" {
		return extractPlain(content)
	}
	fn, ok := e.formats[ext]
	if !ok {
		return "", fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
	return fn(content)
}

// Supports reports whether ext has an extractor.
func (e *Extractor) Supports(ext string) bool {
	_, ok := e.formats[normalizeExt(ext)]
	return ok
}

// Extensions lists the supported extensions, sorted.
func (e *Extractor) Extensions() []string {
	out := make([]string, 0, len(e.formats))
	for ext := range e.formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
