package rag

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// Scorer measures how relevant a context blob is to a query.
type Scorer struct {
	embedder Embedder
	logger   *zap.Logger
}

func NewScorer(embedder Embedder, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{embedder: embedder, logger: logger}
}

// Score returns the cosine similarity between the embeddings of query and text.
// Any failure yields 0 so that a broken embedder can only ever push the caller
// towards the fallback path.
func (s *Scorer) Score(ctx context.Context, query, text string) float64 {
	if query == "" || text == "" {
		return 0
	}
	if s.embedder == nil {
		s.logger.Warn("similarity scoring skipped: no embedder configured")
		return 0
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("embed query for similarity failed", zap.Error(err))
		return 0
	}
	textVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embed context for similarity failed", zap.Error(err))
		return 0
	}

	score, ok := CosineSimilarity(queryVec, textVec)
	if !ok {
		s.logger.Warn("degenerate embedding vectors",
			zap.Int("query_dim", len(queryVec)),
			zap.Int("context_dim", len(textVec)),
		)
		return 0
	}
	return score
}

// CosineSimilarity reports false for empty, mismatched or zero-norm vectors.
func CosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}
