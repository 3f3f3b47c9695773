package keyword

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrDocumentUnavailable is matched by every DocumentError returned from Build.
var ErrDocumentUnavailable = errors.New("document text unavailable")

// Document is one unit of indexing input: a caller-supplied id and decoded text.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Source supplies the documents for one build. Load must set the returned
// Document's ID even when it fails, so the failure can be attributed.
type Source interface {
	Len() int
	Load(i int) (Document, error)
}

// Documents is a Source over documents already held in memory. It never fails.
type Documents []Document

// Len returns the number of documents.
func (d Documents) Len() int { return len(d) }

// Load returns the i-th document.
func (d Documents) Load(i int) (Document, error) { return d[i], nil }

// DocumentError reports a document that was skipped because its text could not be
// obtained.
type DocumentError struct {
	DocID string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q skipped: %v", e.DocID, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDocumentUnavailable) match any DocumentError.
func (e *DocumentError) Is(target error) bool { return target == ErrDocumentUnavailable }

// Builder constructs an Index from a Source.
type Builder struct {
	maxPhraseLength int
	logger          *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxPhraseLength sets the longest phrase, in tokens, that is indexed as its own
// key. Values below 1 are treated as 1 (unigrams only).
func WithMaxPhraseLength(n int) BuilderOption {
	return func(b *Builder) {
		if n < 1 {
			n = 1
		}
		b.maxPhraseLength = n
	}
}

// WithLogger sets a logger for skipped documents and the build summary.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns a Builder. Without options it indexes unigrams and two-word
// phrases and logs nothing.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		maxPhraseLength: DefaultMaxPhraseLength,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads every document from src and returns the finished Index. Documents
// whose text cannot be loaded are skipped; the returned error then combines one
// *DocumentError per skipped document (see multierr.Errors). The Index is never nil
// and always holds every document that loaded.
//
// A document contributes all of its occurrences or none. When two documents share
// an id their occurrences accumulate under that id.
func (b *Builder) Build(src Source) (*Index, error) {
	idx := newIndex(b.maxPhraseLength)
	var errs error
	n := 0
	if src != nil {
		n = src.Len()
	}
	for i := 0; i < n; i++ {
		doc, err := src.Load(i)
		if err != nil {
			b.logger.Warn("skipping unreadable document", zap.String("doc_id", doc.ID), zap.Error(err))
			errs = multierr.Append(errs, &DocumentError{DocID: doc.ID, Err: err})
			continue
		}
		idx.merge(doc.ID, b.count(doc.Text))
	}
	skipped := len(multierr.Errors(errs))
	b.logger.Info("index built",
		zap.Int("documents", idx.DocCount()),
		zap.Int("skipped", skipped),
		zap.Int("keys", idx.KeyCount()),
		zap.Int("max_phrase_length", b.maxPhraseLength),
	)
	return idx, errs
}

// count tallies every unigram and phrase occurrence in text.
func (b *Builder) count(text string) map[string]int {
	tokens := Tokenize(text)
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	for _, phrase := range Phrases(tokens, b.maxPhraseLength) {
		counts[phrase]++
	}
	return counts
}

// Build indexes in-memory documents with a default Builder configured by opts.
func Build(docs []Document, opts ...BuilderOption) *Index {
	// Documents never fails to load, so the error is always nil.
	idx, _ := NewBuilder(opts...).Build(Documents(docs))
	return idx
}
