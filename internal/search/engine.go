// Package search serves queries against the current index snapshot and
// rebuilds that snapshot from the corpus.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/wordsearch/internal/cache"
	"github.com/hyperjump/wordsearch/internal/indexer"
	"github.com/hyperjump/wordsearch/internal/keyword"
	"github.com/hyperjump/wordsearch/internal/metrics"
	"github.com/hyperjump/wordsearch/internal/models"
)

// DefaultSnippetLength is the snippet size in bytes when none is configured.
const DefaultSnippetLength = 160

var (
	// ErrNotReady is returned by Search before the first Rebuild completes.
	ErrNotReady = errors.New("index has not been built")
	// ErrDocumentNotFound is returned by Document for ids not in the snapshot.
	ErrDocumentNotFound = errors.New("document not in index")
)

// LoadFunc produces the corpus for a rebuild.
type LoadFunc func(ctx context.Context) (Corpus, error)

// DirectoryLoader returns a LoadFunc that loads dirs with l.
func DirectoryLoader(l *indexer.Loader, dirs []string) LoadFunc {
	return func(ctx context.Context) (Corpus, error) {
		c, err := l.Load(ctx, dirs)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// StaticLoader returns a LoadFunc that always indexes docs.
func StaticLoader(docs []keyword.Document) LoadFunc {
	c := StaticCorpus(docs)
	return func(context.Context) (Corpus, error) { return c, nil }
}

// Engine answers searches from an immutable snapshot and replaces the whole
// snapshot on Rebuild. Search and Rebuild are safe for concurrent use.
type Engine struct {
	load            LoadFunc
	maxPhraseLength int
	defaultLimit    int
	maxLimit        int
	snippetLength   int
	cache           cache.Cache
	metrics         *metrics.Metrics
	logger          *zap.Logger

	current atomic.Pointer[Snapshot]
	queries singleflight.Group

	mu      sync.Mutex
	running *rebuildCall
	next    *rebuildCall
}

// rebuildCall is one build shared by every caller attached to it.
type rebuildCall struct {
	done chan struct{}
	snap *Snapshot
	err  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPhraseLength sets the longest indexed phrase.
func WithMaxPhraseLength(n int) Option {
	return func(e *Engine) { e.maxPhraseLength = n }
}

// WithLimits sets the default and maximum page size.
func WithLimits(def, max int) Option {
	return func(e *Engine) {
		if def > 0 {
			e.defaultLimit = def
		}
		if max > 0 {
			e.maxLimit = max
		}
	}
}

// WithSnippetLength sets the snippet size; zero or less disables snippets.
func WithSnippetLength(n int) Option {
	return func(e *Engine) { e.snippetLength = n }
}

// WithCache caches result pages in c.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics records builds and searches in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an Engine that builds from load. It holds no snapshot
// until Rebuild is called.
func NewEngine(load LoadFunc, opts ...Option) *Engine {
	e := &Engine{
		load:            load,
		maxPhraseLength: keyword.DefaultMaxPhraseLength,
		defaultLimit:    models.DefaultLimit,
		maxLimit:        models.MaxLimit,
		snippetLength:   DefaultSnippetLength,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the current snapshot, or nil before the first build.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Rebuild loads the corpus, builds a fresh index and publishes it. A caller
// that arrives while a rebuild runs is attached to the single follow-up
// rebuild queued behind it, so its result always reflects a load that began
// after the call. A failed rebuild leaves the previous snapshot in place.
// Skipped documents are not an error; they are listed in Snapshot.Skipped.
//
// The build itself is not cancelled by ctx; ctx only bounds the wait.
func (e *Engine) Rebuild(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	var c *rebuildCall
	switch {
	case e.running == nil:
		c = &rebuildCall{done: make(chan struct{})}
		e.running = c
		go e.runRebuilds(context.WithoutCancel(ctx), c)
	case e.next == nil:
		c = &rebuildCall{done: make(chan struct{})}
		e.next = c
	default:
		c = e.next
		e.logger.Debug("joined queued rebuild")
	}
	e.mu.Unlock()

	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.snap, nil
}

// runRebuilds runs c, then any rebuild queued while it ran, until none is left.
func (e *Engine) runRebuilds(ctx context.Context, c *rebuildCall) {
	for c != nil {
		c.snap, c.err = e.rebuild(ctx)
		close(c.done)

		e.mu.Lock()
		c = e.next
		e.next = nil
		e.running = c
		e.mu.Unlock()
	}
}

func (e *Engine) rebuild(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	corpus, err := e.load(ctx)
	if err != nil {
		e.metrics.ObserveBuild(time.Since(start), 0, 0, 0, err)
		e.logger.Error("rebuild failed", zap.Error(err))
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	builder := keyword.NewBuilder(
		keyword.WithMaxPhraseLength(e.maxPhraseLength),
		keyword.WithLogger(e.logger),
	)
	idx, buildErr := builder.Build(corpus)
	snap := &Snapshot{
		ID:        uuid.NewString(),
		BuiltAt:   time.Now(),
		Duration:  time.Since(start),
		Index:     idx,
		Documents: corpus.Info(),
		Skipped:   multierr.Errors(buildErr),
		corpus:    corpus,
	}
	e.current.Store(snap)
	e.metrics.ObserveBuild(snap.Duration, idx.DocCount(), idx.KeyCount(), len(snap.Skipped), nil)
	e.logger.Info("snapshot published",
		zap.String("snapshot_id", snap.ID),
		zap.Int("documents", idx.DocCount()),
		zap.Int("keys", idx.KeyCount()),
		zap.Int("skipped", len(snap.Skipped)),
		zap.Duration("duration", snap.Duration),
	)
	return snap, nil
}

// Search runs q against the current snapshot and returns the requested
// page. q is normalized in place (limit and offset). Any query text is
// accepted; one without terms yields an empty page.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	q.NormalizeLimits(e.defaultLimit, e.maxLimit)
	snap := e.Snapshot()
	if snap == nil {
		e.metrics.ObserveSearch(time.Since(start), 0, metrics.CacheDisabled, ErrNotReady)
		return nil, ErrNotReady
	}
	parsed := keyword.ParseQuery(q.Query)

	var (
		page        *models.SearchResponse
		cacheStatus = metrics.CacheDisabled
	)
	if e.cache == nil {
		page = e.page(snap, parsed, q.Limit, q.Offset)
	} else {
		page, cacheStatus = e.cachedPage(ctx, snap, parsed, q.Limit, q.Offset)
	}

	resp := *page
	resp.Query = q.Query
	resp.Terms = parsed.Keys()
	resp.QueryTime = time.Since(start).Milliseconds()
	e.metrics.ObserveSearch(time.Since(start), resp.Total, cacheStatus, nil)
	e.logger.Debug("search",
		zap.String("query", q.Query),
		zap.Int("total", resp.Total),
		zap.String("cache", cacheStatus),
	)
	return &resp, nil
}

// cachedPage serves a page from the cache, computing and storing it on a
// miss. Concurrent misses for one key compute it once.
func (e *Engine) cachedPage(ctx context.Context, snap *Snapshot, q keyword.ParsedQuery, limit, offset int) (*models.SearchResponse, string) {
	key := cache.Key(snap.ID, q.Keys(), limit, offset)
	if page, ok := e.cacheGet(ctx, key); ok {
		page.Cached = true
		return page, metrics.CacheHit
	}
	v, _, _ := e.queries.Do(key, func() (interface{}, error) {
		page := e.page(snap, q, limit, offset)
		if data, err := json.Marshal(page); err != nil {
			e.logger.Warn("cache marshal failed", zap.Error(err))
		} else if err := e.cache.Set(ctx, key, data); err != nil {
			e.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return page, nil
	})
	return v.(*models.SearchResponse), metrics.CacheMiss
}

func (e *Engine) cacheGet(ctx context.Context, key string) (*models.SearchResponse, bool) {
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			e.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var page models.SearchResponse
	if err := json.Unmarshal(data, &page); err != nil {
		e.logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &page, true
}

// page ranks q against snap and assembles one page of results.
func (e *Engine) page(snap *Snapshot, q keyword.ParsedQuery, limit, offset int) *models.SearchResponse {
	ranked := keyword.Search(snap.Index, q)
	keys := q.Keys()

	from := offset
	if from > len(ranked) {
		from = len(ranked)
	}
	to := from + limit
	if to > len(ranked) {
		to = len(ranked)
	}

	resp := &models.SearchResponse{
		Results:    make([]*models.SearchResult, 0, to-from),
		Total:      len(ranked),
		Terms:      keys,
		SnapshotID: snap.ID,
	}
	for i, r := range ranked[from:to] {
		info := snap.Documents[r.DocID]
		res := &models.SearchResult{
			ID:    r.DocID,
			Title: info.Title,
			Path:  info.Path,
			Score: r.Score,
			Rank:  from + i + 1,
		}
		if text, ok := snap.Text(r.DocID); ok {
			res.Snippet = Snippet(text, keys, e.snippetLength)
		}
		resp.Results = append(resp.Results, res)
	}
	return resp
}

// Document returns the metadata and extracted text of id in the current
// snapshot.
func (e *Engine) Document(id string) (*models.Document, error) {
	snap := e.Snapshot()
	if snap == nil {
		return nil, ErrNotReady
	}
	info, ok := snap.Documents[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrDocumentNotFound)
	}
	text, _ := snap.Text(id)
	return &models.Document{
		ID:          info.ID,
		Path:        info.Path,
		Title:       info.Title,
		Content:     text,
		Size:        info.Size,
		ModTime:     info.ModTime,
		ExtractedAt: snap.BuiltAt,
	}, nil
}
