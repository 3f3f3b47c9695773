package models

import "errors"

const (
	// DefaultLimit is the page size used when a query does not set one.
	DefaultLimit = 10
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// ErrEmptyQuery is returned for a search request that carries no query
// parameter at all. A blank or punctuation-only query is valid and matches
// nothing.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery is a search request.
type SearchQuery struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Normalize applies DefaultLimit and MaxLimit.
func (q *SearchQuery) Normalize() {
	q.NormalizeLimits(DefaultLimit, MaxLimit)
}

// NormalizeLimits fixes up Limit and Offset: a non-positive limit becomes
// def, a limit above max becomes max, and a negative offset becomes 0. Any
// query text is accepted.
func (q *SearchQuery) NormalizeLimits(def, max int) {
	if q.Limit <= 0 {
		q.Limit = def
	}
	if max > 0 && q.Limit > max {
		q.Limit = max
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
