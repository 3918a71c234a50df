package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const DefaultFallbackResults = 3

// WebFallback turns web search hits into a context blob.
type WebFallback struct {
	provider SearchProvider
	logger   *zap.Logger
}

func NewWebFallback(provider SearchProvider, logger *zap.Logger) *WebFallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebFallback{provider: provider, logger: logger}
}

// Search never fails: every error path returns an empty string.
func (w *WebFallback) Search(ctx context.Context, query string, maxResults int) string {
	if w == nil || w.provider == nil {
		return ""
	}
	if maxResults <= 0 {
		maxResults = DefaultFallbackResults
	}

	w.logger.Info("searching the web", zap.String("query", query), zap.Int("max_results", maxResults))
	results, err := w.provider.Search(ctx, query, maxResults)
	if err != nil {
		w.logger.Warn("web search failed", zap.Error(err))
		return ""
	}
	if len(results) == 0 {
		w.logger.Info("web search returned no results")
		return ""
	}

	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Source %d: %s\n%s\nURL: %s\n", i+1, r.Title, r.Content, r.URL))
	}
	w.logger.Info("web search results aggregated", zap.Int("results", len(results)))
	return strings.Join(blocks, "\n\n")
}
