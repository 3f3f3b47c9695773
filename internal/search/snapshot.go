package search

import (
	"time"

	"github.com/hyperjump/wordsearch/internal/keyword"
	"github.com/hyperjump/wordsearch/internal/models"
)

// Corpus is what a rebuild indexes: the documents plus what is needed to
// describe them in results.
type Corpus interface {
	keyword.Source
	Text(id string) (string, bool)
	Info() map[string]models.DocumentInfo
}

// Snapshot is one built index and the corpus it was built from. A Snapshot
// never changes after Rebuild publishes it.
type Snapshot struct {
	ID        string
	BuiltAt   time.Time
	Duration  time.Duration
	Index     *keyword.Index
	Documents map[string]models.DocumentInfo
	// Skipped holds one *keyword.DocumentError per document left out.
	Skipped []error

	corpus Corpus
}

// Text returns the extracted text of document id.
func (s *Snapshot) Text(id string) (string, bool) {
	if s.corpus == nil {
		return "", false
	}
	return s.corpus.Text(id)
}

// Status summarizes a snapshot for the status endpoint and CLI.
type Status struct {
	SnapshotID    string        `json:"snapshot_id"`
	BuiltAt       time.Time     `json:"built_at"`
	BuildDuration time.Duration `json:"build_duration_ns"`
	Index         keyword.Stats `json:"index"`
	Skipped       []string      `json:"skipped,omitempty"`
}

// Status returns the summary of s.
func (s *Snapshot) Status() Status {
	st := Status{
		SnapshotID:    s.ID,
		BuiltAt:       s.BuiltAt,
		BuildDuration: s.Duration,
		Index:         s.Index.Stats(),
	}
	for _, err := range s.Skipped {
		st.Skipped = append(st.Skipped, err.Error())
	}
	return st
}

// StaticCorpus is an in-memory Corpus.
type StaticCorpus []keyword.Document

// Len returns the number of documents.
func (c StaticCorpus) Len() int { return len(c) }

// Load returns the i-th document.
func (c StaticCorpus) Load(i int) (keyword.Document, error) { return c[i], nil }

// Text returns the text of the first document with id.
func (c StaticCorpus) Text(id string) (string, bool) {
	for _, d := range c {
		if d.ID == id {
			return d.Text, true
		}
	}
	return "", false
}

// Info describes each document by its id.
func (c StaticCorpus) Info() map[string]models.DocumentInfo {
	out := make(map[string]models.DocumentInfo, len(c))
	for _, d := range c {
		out[d.ID] = models.DocumentInfo{ID: d.ID, Title: d.ID, Size: int64(len(d.Text))}
	}
	return out
}
