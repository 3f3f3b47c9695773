// Package keyword implements the in-memory inverted index: tokenization, index
// construction, query parsing and occurrence-count ranking.
//
// An Index is built once by a Builder and never modified afterwards, so a single
// Index may be searched from any number of goroutines without locking.
package keyword

import (
	"sort"
)

// Posting is one document's entry in a key's posting list. Count is the number of
// times the key occurs in the document and is always positive.
type Posting struct {
	DocID string `json:"doc_id"`
	Count int    `json:"count"`
}

// Stats summarizes an Index.
type Stats struct {
	Documents       int `json:"documents"`
	Keys            int `json:"keys"`
	Occurrences     int `json:"occurrences"`
	MaxPhraseLength int `json:"max_phrase_length"`
}

// Index maps a normalized token or phrase to the documents containing it, with the
// number of occurrences per document. Use Builder to create one.
type Index struct {
	postings        map[string]map[string]int
	docs            map[string]struct{}
	occurrences     int
	maxPhraseLength int
}

func newIndex(maxPhraseLength int) *Index {
	return &Index{
		postings:        make(map[string]map[string]int),
		docs:            make(map[string]struct{}),
		maxPhraseLength: maxPhraseLength,
	}
}

// merge adds one document's counted keys. Only called while building.
func (idx *Index) merge(docID string, counts map[string]int) {
	idx.docs[docID] = struct{}{}
	for key, n := range counts {
		docs, ok := idx.postings[key]
		if !ok {
			docs = make(map[string]int)
			idx.postings[key] = docs
		}
		docs[docID] += n
		idx.occurrences += n
	}
}

// Lookup returns the postings for key ordered by document id, or nil when the key
// does not occur in any document. The returned slice belongs to the caller.
func (idx *Index) Lookup(key string) []Posting {
	docs, ok := idx.postings[key]
	if !ok {
		return nil
	}
	out := make([]Posting, 0, len(docs))
	for id, n := range docs {
		out = append(out, Posting{DocID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}

// Occurrences returns how many times key occurs in document docID.
func (idx *Index) Occurrences(key, docID string) int {
	return idx.postings[key][docID]
}

// Contains reports whether key occurs in at least one document.
func (idx *Index) Contains(key string) bool {
	_, ok := idx.postings[key]
	return ok
}

// KeyCount returns the number of distinct tokens and phrases in the index.
func (idx *Index) KeyCount() int {
	return len(idx.postings)
}

// DocCount returns the number of documents that were indexed.
func (idx *Index) DocCount() int {
	return len(idx.docs)
}

// DocIDs returns the ids of all indexed documents in ascending order.
func (idx *Index) DocIDs() []string {
	ids := make([]string, 0, len(idx.docs))
	for id := range idx.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MaxPhraseLength returns the longest phrase length the index was built with.
func (idx *Index) MaxPhraseLength() int {
	return idx.maxPhraseLength
}

// Stats returns summary counts for the index.
func (idx *Index) Stats() Stats {
	return Stats{
		Documents:       len(idx.docs),
		Keys:            len(idx.postings),
		Occurrences:     idx.occurrences,
		MaxPhraseLength: idx.maxPhraseLength,
	}
}
