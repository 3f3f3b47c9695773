// Package indexer turns corpus directories into a keyword.Source: it walks the
// directories, extracts text in parallel and reuses cached text for files that
// have not changed.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/wordsearch/internal/extract"
	"github.com/hyperjump/wordsearch/internal/fileid"
	"github.com/hyperjump/wordsearch/internal/models"
	"github.com/hyperjump/wordsearch/internal/storage"
)

// DefaultWorkers is the extraction parallelism when none is configured.
const DefaultWorkers = 4

// File is one corpus file found by Scan.
type File struct {
	ID      string
	Path    string
	Root    string
	Size    int64
	ModTime time.Time
}

// Loader reads corpus directories.
type Loader struct {
	extractor  *extract.Extractor
	storage    storage.Storage
	extensions []string
	recursive  bool
	workers    int
	logger     *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithStorage caches extracted text in s, keyed by document id.
func WithStorage(s storage.Storage) LoaderOption {
	return func(l *Loader) { l.storage = s }
}

// WithExtensions restricts the walk to files with these extensions. Without
// it every extension the extractor supports is accepted.
func WithExtensions(exts []string) LoaderOption {
	return func(l *Loader) { l.extensions = exts }
}

// WithRecursive controls whether subdirectories are walked.
func WithRecursive(recursive bool) LoaderOption {
	return func(l *Loader) { l.recursive = recursive }
}

// WithWorkers sets how many files are extracted at once.
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets a logger for skipped paths and cache activity.
func WithLogger(lg *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoader returns a Loader that extracts with extractor, which may be nil
// for the built-in formats.
func NewLoader(extractor *extract.Extractor, opts ...LoaderOption) *Loader {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	l := &Loader{
		extractor: extractor,
		recursive: true,
		workers:   DefaultWorkers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.extensions) == 0 {
		l.extensions = extractor.Extensions()
	}
	return l
}

// Accepts reports whether path has one of the loader's extensions.
func (l *Loader) Accepts(path string) bool {
	return extensionAllowed(filepath.Ext(path), l.extensions)
}

// Scan walks dirs and returns the matching regular files ordered by id. With
// more than one root, ids are prefixed by the root's label so equal relative
// paths in different roots stay distinct. A missing or non-directory root is
// an error; unreadable entries below a root are logged and skipped.
func (l *Loader) Scan(dirs []string) ([]File, error) {
	roots, err := absRoots(dirs)
	if err != nil {
		return nil, err
	}
	labels := fileid.RootLabels(roots)
	var files []File
	for ri, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", root)
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				l.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(walkErr))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && !l.recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if !l.Accepts(path) {
				return nil
			}
			// Follow symlinks, but only index regular files.
			finfo, err := os.Stat(path)
			if err != nil || !finfo.Mode().IsRegular() {
				return nil
			}
			files = append(files, File{
				ID:      fileid.Prefixed(labels[ri], fileid.DocID(root, path)),
				Path:    path,
				Root:    root,
				Size:    finfo.Size(),
				ModTime: finfo.ModTime(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

// absRoots resolves dirs to absolute paths, dropping repeats.
func absRoots(dirs []string) ([]string, error) {
	roots := make([]string, 0, len(dirs))
	seen := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		root, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots, nil
}

// Load scans dirs and extracts every file. Per-file failures do not fail
// Load; they surface when the returned Corpus is built. Load fails only when
// a root cannot be walked or ctx is cancelled.
func (l *Loader) Load(ctx context.Context, dirs []string) (*Corpus, error) {
	files, err := l.Scan(dirs)
	if err != nil {
		return nil, err
	}
	c := newCorpus(files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := range files {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, cached, err := l.text(gctx, files[i])
			c.texts[i], c.cached[i], c.errs[i] = text, cached, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.index()

	if l.storage != nil {
		if err := l.prune(ctx, c, dirs); err != nil {
			l.logger.Warn("pruning text cache failed", zap.Error(err))
		}
	}
	l.logger.Info("corpus loaded",
		zap.Int("files", len(files)),
		zap.Int("cached", c.CachedCount()),
		zap.Int("failed", c.FailedCount()),
	)
	return c, nil
}

// text returns the text of f, from the cache when the file is unchanged.
func (l *Loader) text(ctx context.Context, f File) (string, bool, error) {
	if l.storage != nil {
		doc, err := l.storage.GetDocument(ctx, f.ID)
		switch {
		case err == nil && doc.Path == f.Path && doc.Fresh(f.Size, f.ModTime):
			return doc.Content, true, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			l.logger.Warn("text cache lookup failed", zap.String("doc_id", f.ID), zap.Error(err))
		}
	}
	text, err := l.extractor.Extract(f.Path)
	if err != nil {
		return "", false, err
	}
	if l.storage != nil {
		doc := &models.Document{
			ID:      f.ID,
			Path:    f.Path,
			Title:   fileid.Title(f.ID),
			Content: text,
			Size:    f.Size,
			ModTime: f.ModTime,
		}
		if err := l.storage.PutDocument(ctx, doc); err != nil {
			l.logger.Warn("text cache write failed", zap.String("doc_id", f.ID), zap.Error(err))
		}
	}
	return text, false, nil
}

const pruneBatch = 500

// prune removes cached documents under the scanned roots whose files are no
// longer in the corpus. Entries from other roots are left alone.
func (l *Loader) prune(ctx context.Context, c *Corpus, dirs []string) error {
	roots, err := absRoots(dirs)
	if err != nil {
		return err
	}
	var stale []string
	for offset := 0; ; offset += pruneBatch {
		docs, err := l.storage.ListDocuments(ctx, offset, pruneBatch)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if !underAny(d.Path, roots) {
				continue
			}
			if _, ok := c.byID[d.ID]; !ok {
				stale = append(stale, d.ID)
			}
		}
		if len(docs) < pruneBatch {
			break
		}
	}
	var errs error
	for _, id := range stale {
		if err := l.storage.DeleteDocument(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = multierr.Append(errs, err)
		}
	}
	if len(stale) > 0 {
		l.logger.Debug("pruned text cache", zap.Int("documents", len(stale)))
	}
	return errs
}

// underAny reports whether path lies inside one of roots.
func underAny(path string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func extensionAllowed(ext string, allowed []string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}
