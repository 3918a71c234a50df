package vectorstore

import (
	"context"
	"fmt"
	"math"

	"ragquiz/internal/rag"
)

type MMRConfig struct {
	K      int
	FetchK int
	// Lambda trades relevance (1) against diversity (0).
	Lambda float64
}

// MMRRetriever ranks candidates by maximal marginal relevance.
type MMRRetriever struct {
	store    *Store
	embedder rag.Embedder
	cfg      MMRConfig
}

func NewMMRRetriever(store *Store, embedder rag.Embedder, cfg MMRConfig) *MMRRetriever {
	if cfg.K <= 0 {
		cfg.K = 1
	}
	if cfg.FetchK < cfg.K {
		cfg.FetchK = max(20, cfg.K)
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		cfg.Lambda = 1
	}
	return &MMRRetriever{store: store, embedder: embedder, cfg: cfg}
}

func (r *MMRRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]rag.ContextChunk, error) {
	if r.store.Count() == 0 {
		return nil, nil
	}
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	candidates, err := r.store.Query(ctx, queryVec, r.cfg.FetchK)
	if err != nil {
		return nil, err
	}

	selected := selectMMR(queryVec, candidates, r.cfg.K, r.cfg.Lambda)
	out := make([]rag.ContextChunk, 0, len(selected))
	for _, m := range selected {
		out = append(out, rag.ContextChunk{
			Content:  m.Content,
			Source:   m.Metadata["source"],
			Metadata: m.Metadata,
		})
	}
	return out, nil
}

func selectMMR(queryVec []float32, candidates []Match, k int, lambda float64) []Match {
	k = min(k, len(candidates))
	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosine(queryVec, c.Embedding)
	}

	picked := make([]bool, len(candidates))
	selected := make([]Match, 0, k)
	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if picked[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
			}
			for _, s := range selected {
				redundancy = max(redundancy, cosine(c.Embedding, s.Embedding))
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		picked[best] = true
		selected = append(selected, candidates[best])
	}
	return selected
}

// cosine scores degenerate vectors as 0 so they rank neutrally instead of
// dropping out of the candidate set.
func cosine(a, b []float32) float64 {
	score, _ := rag.CosineSimilarity(a, b)
	return score
}
