// Package sample writes small .docx files of random sentences for trying
// out the index.
package sample

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Vocabulary is the word list sample sentences are drawn from.
var Vocabulary = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
	"ipsum", "lorem", "search", "document", "text", "word", "python",
}

const (
	// DefaultParagraphs is the number of paragraphs per document.
	DefaultParagraphs = 3
	minWords          = 5
	maxWords          = 15
)

// Generator produces sample documents.
type Generator struct {
	rand       *rand.Rand
	paragraphs int
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the output reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rand = rand.New(rand.NewSource(seed)) }
}

// WithParagraphs sets the paragraphs per document.
func WithParagraphs(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.paragraphs = n
		}
	}
}

// NewGenerator returns a Generator seeded from the clock unless WithSeed is
// given.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		paragraphs: DefaultParagraphs,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Sentence returns 5 to 15 vocabulary words, drawn with replacement, ending
// in a period.
func (g *Generator) Sentence() string {
	n := minWords + g.rand.Intn(maxWords-minWords+1)
	words := make([]string, n)
	for i := range words {
		words[i] = Vocabulary[g.rand.Intn(len(Vocabulary))]
	}
	return strings.Join(words, " ") + "."
}

// Paragraphs returns one sentence per paragraph.
func (g *Generator) Paragraphs() []string {
	out := make([]string, g.paragraphs)
	for i := range out {
		out[i] = g.Sentence()
	}
	return out
}

// Generate writes n documents named sample_<i>.docx into dir, creating it
// if needed, and returns their paths.
func (g *Generator) Generate(dir string, n int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var buf bytes.Buffer
		if err := WriteDocx(&buf, g.Paragraphs()); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("sample_%d.docx", i))
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`
	packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`</Relationships>`
	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentTail = `</w:body></w:document>`
)

// WriteDocx writes a minimal WordprocessingML package with one paragraph
// of one run per entry in paragraphs.
func WriteDocx(w io.Writer, paragraphs []string) error {
	var body strings.Builder
	body.WriteString(documentHead)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			return err
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(documentTail)

	zw := zip.NewWriter(w)
	for _, part := range []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/document.xml", body.String()},
	} {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("write docx: %w", err)
		}
		if _, err := io.WriteString(f, part.data); err != nil {
			return fmt.Errorf("write docx: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
