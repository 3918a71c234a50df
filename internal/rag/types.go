// Package rag implements the retrieval-augmented generation pipeline that turns
// indexed passages into question-answer pairs and multiple-choice questions.
//
// The package only depends on the collaborator interfaces declared here; concrete
// retrievers, embedders, models and search providers are injected by the caller.
package rag

import "context"

// ContextChunk is a single retrieved passage.
type ContextChunk struct {
	Content  string
	Source   string
	Metadata map[string]string
}

// WebResult is one hit returned by a SearchProvider.
type WebResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Retriever returns passages relevant to a query, best first.
type Retriever interface {
	GetRelevantDocuments(ctx context.Context, query string) ([]ContextChunk, error)
}

// Embedder maps text to a fixed-length vector. Identical input must yield
// identical output within a process for scores to be reproducible.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerativeModel completes a single prompt.
type GenerativeModel interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// SearchProvider queries an external web search service.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}
