// Package models defines the data structures shared by storage, search and the API.
package models

import "time"

// Document is the extracted text of one corpus file together with the file
// attributes used to decide whether the text is still current.
type Document struct {
	ID          string    `json:"id" db:"id"`
	Path        string    `json:"path" db:"path"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content,omitempty" db:"content"`
	Size        int64     `json:"size" db:"size"`
	ModTime     time.Time `json:"mod_time" db:"mod_time"`
	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
}

// Fresh reports whether d was extracted from a file with the given size and
// modification time.
func (d *Document) Fresh(size int64, modTime time.Time) bool {
	return d.Size == size && d.ModTime.Equal(modTime)
}

// DocumentInfo is the per-document metadata kept alongside a built index.
type DocumentInfo struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Title   string    `json:"title"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
