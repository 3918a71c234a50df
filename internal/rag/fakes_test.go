package rag

import (
	"context"
	"errors"
	"sync"
)

type stubRetriever struct {
	chunks []ContextChunk
	err    error
	calls  int
}

func (s *stubRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]ContextChunk, error) {
	s.calls++
	return s.chunks, s.err
}

// mapEmbedder returns a fixed vector per text and counts calls.
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.vectors[text]
	if !ok {
		return nil, errors.New("no vector for text")
	}
	return v, nil
}

type recordingModel struct {
	response     string
	err          error
	calls        int
	prompts      []string
	temperatures []float64
}

func (r *recordingModel) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	r.calls++
	r.prompts = append(r.prompts, prompt)
	r.temperatures = append(r.temperatures, temperature)
	return r.response, r.err
}

type stubSearch struct {
	results []WebResult
	err     error
	queries []string
	limits  []int
}

func (s *stubSearch) Search(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
	s.queries = append(s.queries, query)
	s.limits = append(s.limits, maxResults)
	return s.results, s.err
}
