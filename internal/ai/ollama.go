package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

type OllamaConfig struct {
	ServerURL      string
	Model          string
	EmbeddingModel string
}

// OllamaModel generates text through any langchaingo model, normally Ollama.
type OllamaModel struct {
	llm llms.Model
}

func NewOllamaModel(llm llms.Model) *OllamaModel {
	return &OllamaModel{llm: llm}
}

func (m *OllamaModel) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	msgs := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	resp, err := m.llm.GenerateContent(ctx, msgs, llms.WithTemperature(temperature))
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty ollama choices")
	}
	return resp.Choices[0].Content, nil
}

// OllamaEmbedder adapts a langchaingo embedder.
type OllamaEmbedder struct {
	embedder embeddings.Embedder
	model    string
}

func NewOllamaEmbedder(embedder embeddings.Embedder, model string) *OllamaEmbedder {
	return &OllamaEmbedder{embedder: embedder, model: model}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	return vec, nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch failed: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embed batch returned %d vectors for %d inputs", len(vecs), len(texts))
	}
	return vecs, nil
}

func (e *OllamaEmbedder) Name() string { return e.model }

// NewOllama builds one client per model because an Ollama client carries a
// single model name.
func NewOllama(cfg OllamaConfig) (*OllamaModel, *OllamaEmbedder, error) {
	chat, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init ollama chat client failed: %w", err)
	}

	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = cfg.Model
	}
	embedClient, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(embedModel),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("init ollama embedding client failed: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedClient)
	if err != nil {
		return nil, nil, fmt.Errorf("init ollama embedder failed: %w", err)
	}
	return NewOllamaModel(chat), NewOllamaEmbedder(embedder, embedModel), nil
}
