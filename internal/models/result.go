package models

// SearchResult is one ranked hit. Score is the total number of occurrences
// of the query terms in the document.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Path    string `json:"path,omitempty"`
	Score   int    `json:"score"`
	Rank    int    `json:"rank"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchResponse is the response for a search request. Total counts every
// matching document; Results holds only the requested page.
type SearchResponse struct {
	Results    []*SearchResult `json:"results"`
	Total      int             `json:"total"`
	QueryTime  int64           `json:"query_time_ms"`
	Query      string          `json:"query"`
	Terms      []string        `json:"terms"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
	Cached     bool            `json:"cached,omitempty"`
}
