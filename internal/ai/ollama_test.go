package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeLLM struct {
	reply   string
	err     error
	options llms.CallOptions
	prompt  string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, o := range options {
		o(&f.options)
	}
	if len(msgs) > 0 && len(msgs[0].Parts) > 0 {
		if tc, ok := msgs[0].Parts[0].(llms.TextContent); ok {
			f.prompt = tc.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestOllamaModel_Complete(t *testing.T) {
	llm := &fakeLLM{reply: `[{"id":"1"}]`, options: llms.CallOptions{Temperature: 0.7}}
	out, err := NewOllamaModel(llm).Complete(context.Background(), "prompt text", 0)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, out)
	assert.Equal(t, "prompt text", llm.prompt)
	assert.Equal(t, 0.0, llm.options.Temperature)
}

func TestOllamaModel_Error(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewOllamaModel(&fakeLLM{err: boom}).Complete(context.Background(), "p", 0)
	assert.ErrorIs(t, err, boom)
}

type fakeEmbedder struct {
	docs [][]float32
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return f.docs, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func TestOllamaEmbedder(t *testing.T) {
	e := NewOllamaEmbedder(&fakeEmbedder{docs: [][]float32{{1}}}, "nomic-embed-text")
	assert.Equal(t, "nomic-embed-text", e.Name())

	vec, err := e.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "returned 1 vectors for 2 inputs")
}
