package keyword

import "sort"

// Result is a matching document and its score: the summed occurrence counts of every
// query term in that document.
type Result struct {
	DocID string `json:"doc_id"`
	Score int    `json:"score"`
}

// Search scores every document against q and returns the matches ordered by score,
// highest first, with ties broken by ascending document id. Terms missing from the
// index contribute nothing. Documents that match no term are left out, so an empty
// query returns an empty slice.
//
// Search only reads idx; concurrent calls on the same Index are safe.
func Search(idx *Index, q ParsedQuery) []Result {
	if idx == nil || q.Empty() {
		return []Result{}
	}
	scores := make(map[string]int)
	for _, term := range q.Terms {
		for docID, n := range idx.postings[term.Text] {
			scores[docID] += n
		}
	}
	return rank(scores)
}

// SearchString parses raw and searches idx with the result.
func SearchString(idx *Index, raw string) []Result {
	return Search(idx, ParseQuery(raw))
}

func rank(scores map[string]int) []Result {
	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{DocID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	return results
}
