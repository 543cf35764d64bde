package index

import "sort"

// scored pairs a chunk position with a ranker-specific score. Scores from
// different rankers are never compared directly; fusion works on ranks.
type scored struct {
	pos   int
	score float64
}

// denseRanker performs exact nearest-neighbor search over a flat matrix of
// chunk embeddings using squared L2 distance. The corpus is small enough that
// a full scan beats the complexity of an approximate index.
type denseRanker struct {
	vectors [][]float32
	dims    int
}

func newDenseRanker(vectors [][]float32, dims int) *denseRanker {
	return &denseRanker{vectors: vectors, dims: dims}
}

// topK returns up to n positions nearest to the query vector. The score is
// the negated squared distance so that, like the lexical ranker, higher is
// better. Ties break by position.
func (r *denseRanker) topK(query []float32, n int) []scored {
	if len(r.vectors) == 0 || n <= 0 {
		return nil
	}

	out := make([]scored, len(r.vectors))
	for pos, vec := range r.vectors {
		var d float64
		for i := range vec {
			diff := float64(vec[i]) - float64(query[i])
			d += diff * diff
		}
		out[pos] = scored{pos: pos, score: -d}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].pos < out[j].pos
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
