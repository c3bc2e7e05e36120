// ABOUTME: RetrievalResult carries the chunks a retriever judged relevant
// ABOUTME: An empty hit list is the single "no relevant result" value
package models

// Strategy names the retrieval path that produced a result
type Strategy string

const (
	StrategyVector  Strategy = "vector"
	StrategyLexical Strategy = "lexical"
	StrategyPrefix  Strategy = "prefix"
	StrategyNone    Strategy = "none"
)

// Hit is one retrieved chunk. Score is an L2 distance for vector hits
// (lower is better) and an additive keyword score for lexical hits.
type Hit struct {
	ID    int     `json:"id"`
	Chunk Chunk   `json:"-"`
	Score float64 `json:"score"`
}

// RetrievalResult is the ordered outcome of a search
type RetrievalResult struct {
	Strategy Strategy `json:"strategy"`
	Hits     []Hit    `json:"hits"`
}

// NoRelevant returns the terminal "nothing relevant" result for a strategy
func NoRelevant(strategy Strategy) RetrievalResult {
	return RetrievalResult{Strategy: strategy}
}

// HasRelevant reports whether any chunk was judged relevant
func (r RetrievalResult) HasRelevant() bool {
	return len(r.Hits) > 0
}

// Chunks returns the hit chunks in rank order
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, 0, len(r.Hits))
	for _, h := range r.Hits {
		chunks = append(chunks, h.Chunk)
	}
	return chunks
}

// IDs returns the hit chunk positions in rank order
func (r RetrievalResult) IDs() []int {
	ids := make([]int, 0, len(r.Hits))
	for _, h := range r.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}
