// Package gemini implements dense embedding generation using Google Gemini.
package gemini

import (
	"context"

	"github.com/fwojciec/helpdex"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "gemini-embedding-001"

const (
	// batchSize is the maximum number of texts per EmbedContent request.
	batchSize = 100

	// maxConcurrent bounds in-flight embedding requests.
	maxConcurrent = 4
)

// Ensure Embedder implements helpdex.Embedder at compile time.
var _ helpdex.Embedder = (*Embedder)(nil)

// Embedder implements helpdex.Embedder using the Gemini embedding API.
// Requests are batched, rate limited and issued with bounded concurrency.
type Embedder struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewEmbedder creates an Embedder. An empty model selects DefaultModel; a
// non-positive requestsPerSecond disables rate limiting.
func NewEmbedder(client *genai.Client, model string, requestsPerSecond float64) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Embedder{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Model identifies the embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// Embed converts texts into dense vectors, preserving input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, helpdex.Errorf(helpdex.EINVALID, "no texts to embed")
	}

	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, r := range BatchRanges(len(texts), batchSize) {
		start, end := r[0], r[1]
		g.Go(func() error {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
			return e.embedBatch(ctx, texts[start:end], out[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string, out [][]float32) error {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return helpdex.Errorf(helpdex.EUNAVAILABLE, "embedding request failed: %v", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return helpdex.Errorf(helpdex.EINTERNAL, "embedding response covers %d of %d texts", respLen(resp), len(texts))
	}
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return helpdex.Errorf(helpdex.EINTERNAL, "empty embedding for text %d", i)
		}
		out[i] = emb.Values
	}
	return nil
}

func respLen(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}

// BatchRanges splits n items into [start, end) ranges of at most size items.
func BatchRanges(n, size int) [][2]int {
	var ranges [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}
