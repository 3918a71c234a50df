package ai

import (
	"context"
	"fmt"
	"strings"
)

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, cfg EmbeddingConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	var parsed embeddingResponse
	if err := c.postJSON(ctx, cfg.BaseURL, cfg.APIKey, "/embeddings", embeddingRequest{Model: cfg.Model, Input: text}, &parsed); err != nil {
		return nil, fmt.Errorf("embedding %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return parsed.Data[0].Embedding, nil
}

// EmbedBatch embeds texts in one request. Output order follows input order;
// blank inputs are rejected rather than skipped so indexes stay aligned.
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, cfg EmbeddingConfig, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	trimmed := make([]string, len(texts))
	for i, t := range texts {
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, fmt.Errorf("embedding batch input %d is empty", i)
		}
		trimmed[i] = s
	}

	var parsed embeddingResponse
	if err := c.postJSON(ctx, cfg.BaseURL, cfg.APIKey, "/embeddings", embeddingRequest{Model: cfg.Model, Input: trimmed}, &parsed); err != nil {
		return nil, fmt.Errorf("embedding batch %w", err)
	}
	if len(parsed.Data) != len(trimmed) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d inputs", len(parsed.Data), len(trimmed))
	}
	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		result[i] = parsed.Data[i].Embedding
	}
	return result, nil
}

// EmbeddingModel binds the client to one embedding configuration.
type EmbeddingModel struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbeddingModel(client *OpenAICompatibleClient, cfg EmbeddingConfig) *EmbeddingModel {
	return &EmbeddingModel{client: client, cfg: cfg}
}

func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.client.Embed(ctx, m.cfg, text)
}

func (m *EmbeddingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.client.EmbedBatch(ctx, m.cfg, texts)
}

// Name identifies the embedding space, used to namespace cached vectors.
func (m *EmbeddingModel) Name() string { return m.cfg.Model }
