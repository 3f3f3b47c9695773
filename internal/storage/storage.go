// Package storage persists extracted document text so unchanged files are
// not extracted again on the next build.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/wordsearch/internal/models"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// Storage is the extracted-text cache.
type Storage interface {
	// PutDocument inserts doc or replaces the stored document with the same id.
	PutDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	// ListDocuments returns documents ordered by id, without their content.
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	Close() error
}
