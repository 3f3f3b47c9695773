package indexer

import (
	"strings"

	"github.com/hyperjump/wordsearch/internal/fileid"
	"github.com/hyperjump/wordsearch/internal/keyword"
	"github.com/hyperjump/wordsearch/internal/models"
)

// Corpus is the loaded text of every scanned file. It implements
// keyword.Source; a file whose text could not be extracted fails to Load.
type Corpus struct {
	files  []File
	texts  []string
	cached []bool
	errs   []error
	byID   map[string][]int
}

var _ keyword.Source = (*Corpus)(nil)

func newCorpus(files []File) *Corpus {
	return &Corpus{
		files:  files,
		texts:  make([]string, len(files)),
		cached: make([]bool, len(files)),
		errs:   make([]error, len(files)),
	}
}

func (c *Corpus) index() {
	c.byID = make(map[string][]int, len(c.files))
	for i, f := range c.files {
		c.byID[f.ID] = append(c.byID[f.ID], i)
	}
}

// Len returns the number of files.
func (c *Corpus) Len() int { return len(c.files) }

// Load returns the i-th document or the error that prevented its extraction.
func (c *Corpus) Load(i int) (keyword.Document, error) {
	f := c.files[i]
	if err := c.errs[i]; err != nil {
		return keyword.Document{ID: f.ID}, err
	}
	return keyword.Document{ID: f.ID, Text: c.texts[i]}, nil
}

// Files returns the scanned files ordered by id.
func (c *Corpus) Files() []File { return c.files }

// Text returns the extracted text for id. Files sharing an id have their
// texts joined by a newline.
func (c *Corpus) Text(id string) (string, bool) {
	var parts []string
	for _, i := range c.byID[id] {
		if c.errs[i] == nil {
			parts = append(parts, c.texts[i])
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// Info returns metadata for every document that loaded, keyed by id.
func (c *Corpus) Info() map[string]models.DocumentInfo {
	out := make(map[string]models.DocumentInfo, len(c.files))
	for i, f := range c.files {
		if c.errs[i] != nil {
			continue
		}
		if _, seen := out[f.ID]; seen {
			continue
		}
		out[f.ID] = models.DocumentInfo{
			ID:      f.ID,
			Path:    f.Path,
			Title:   fileid.Title(f.ID),
			Size:    f.Size,
			ModTime: f.ModTime,
		}
	}
	return out
}

// CachedCount returns how many files were served from the text cache.
func (c *Corpus) CachedCount() int { return count(c.cached) }

// FailedCount returns how many files could not be extracted.
func (c *Corpus) FailedCount() int {
	n := 0
	for _, err := range c.errs {
		if err != nil {
			n++
		}
	}
	return n
}

func count(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
