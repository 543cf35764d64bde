package index

import (
	"math"
	"sort"
	"strings"
)

// BM25 parameters. Standard Okapi values; changing them invalidates score
// parity with previously built indexes only in ranking, not in storage, since
// the persisted lexical artifact is the raw token lists.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Tokenize lowercases and splits on whitespace. Deliberately naive: both the
// build path and the query path must use the same tokenizer, and the persisted
// token lists are its output.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

type posting struct {
	doc int
	tf  int
}

// bm25 is an Okapi BM25 lexical ranker over a fixed document set. Built once,
// then read-only.
type bm25 struct {
	postings map[string][]posting
	docLen   []int
	avgLen   float64
	n        int
}

func newBM25(tokenLists [][]string) *bm25 {
	r := &bm25{
		postings: make(map[string][]posting),
		docLen:   make([]int, len(tokenLists)),
		n:        len(tokenLists),
	}

	total := 0
	for doc, tokens := range tokenLists {
		r.docLen[doc] = len(tokens)
		total += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok, cnt := range tf {
			r.postings[tok] = append(r.postings[tok], posting{doc: doc, tf: cnt})
		}
	}
	if r.n > 0 {
		r.avgLen = float64(total) / float64(r.n)
	}
	return r
}

func (r *bm25) idf(term string) float64 {
	df := len(r.postings[term])
	if df == 0 {
		return 0
	}
	return math.Log(1 + (float64(r.n)-float64(df)+0.5)/(float64(df)+0.5))
}

// topK returns up to n document positions scored against the query tokens,
// best first. Every document is a candidate: documents matching no query term
// carry a zero score and rank after every match, in position order, so small
// corpora still assign each document its true rank. Ties are broken by
// position so the output is deterministic.
func (r *bm25) topK(queryTokens []string, n int) []scored {
	if r.n == 0 || n <= 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, term := range queryTokens {
		idf := r.idf(term)
		if idf == 0 {
			continue
		}
		for _, p := range r.postings[term] {
			tf := float64(p.tf)
			norm := 1 - bm25B + bm25B*float64(r.docLen[p.doc])/r.avgLen
			scores[p.doc] += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
	}

	out := make([]scored, 0, len(scores))
	for doc, score := range scores {
		out = append(out, scored{pos: doc, score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].pos < out[j].pos
	})
	for doc := 0; doc < r.n && len(out) < n; doc++ {
		if _, ok := scores[doc]; !ok {
			out = append(out, scored{pos: doc})
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
