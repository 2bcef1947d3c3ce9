package search

import (
	"math"
	"sort"

	"paperchat-be/pkg/store"
)

// Ranker scores document chunks against a query with tf-idf.
type Ranker struct {
	// MinScore drops chunks scoring at or below it. Zero keeps any chunk sharing a term.
	MinScore float32
}

func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns at most topK chunks ordered by descending score.
// Ties keep document order. When no chunk shares a term with the query the
// leading chunks are returned unscored so the model still sees the opening of the document.
func (r *Ranker) Rank(query string, chunks []store.Chunk, topK int) []store.Chunk {
	if topK < 1 || len(chunks) == 0 {
		return []store.Chunk{}
	}

	queryTerms := Tokenize(query)
	docTerms := make([]map[string]int, len(chunks))
	docFreq := make(map[string]int)
	for i, c := range chunks {
		tf := make(map[string]int)
		for _, t := range Tokenize(c.Text) {
			tf[t]++
		}
		docTerms[i] = tf
		for t := range tf {
			docFreq[t]++
		}
	}

	n := float64(len(chunks))
	scored := make([]store.Chunk, 0, len(chunks))
	for i, c := range chunks {
		var score float64
		total := 0
		for _, cnt := range docTerms[i] {
			total += cnt
		}
		for _, q := range queryTerms {
			cnt, ok := docTerms[i][q]
			if !ok {
				continue
			}
			idf := math.Log(1 + n/float64(docFreq[q]))
			score += (float64(cnt) / float64(total)) * idf
		}
		if float32(score) <= r.MinScore || score == 0 {
			continue
		}
		c.Score = float32(score)
		scored = append(scored, c)
	}

	if len(scored) == 0 {
		return leading(chunks, topK)
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].Ordinal < scored[b].Ordinal
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func leading(chunks []store.Chunk, topK int) []store.Chunk {
	out := make([]store.Chunk, len(chunks))
	copy(out, chunks)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Ordinal < out[b].Ordinal })
	if len(out) > topK {
		out = out[:topK]
	}
	for i := range out {
		out[i].Score = 0
	}
	return out
}
