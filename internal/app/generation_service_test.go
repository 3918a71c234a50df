package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ragquiz/internal/model"
	"ragquiz/internal/rag"
)

type fakeGenerator struct {
	qa      *rag.QAResult
	mcq     *rag.MCQResult
	err     error
	lastOpt rag.Options
	calls   []rag.Kind
}

func (f *fakeGenerator) GenerateQA(ctx context.Context, query string, opts rag.Options) (*rag.QAResult, error) {
	f.calls = append(f.calls, rag.KindQA)
	f.lastOpt = opts
	return f.qa, f.err
}

func (f *fakeGenerator) GenerateMCQ(ctx context.Context, query string, opts rag.Options) (*rag.MCQResult, error) {
	f.calls = append(f.calls, rag.KindMCQ)
	f.lastOpt = opts
	return f.mcq, f.err
}

type capturePublisher struct {
	records []model.GenerationRecord
	err     error
}

func (c *capturePublisher) Publish(ctx context.Context, rec model.GenerationRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

type staticLister []model.GenerationRecord

func (s staticLister) ListRecent(ctx context.Context, limit int) ([]model.GenerationRecord, error) {
	return s, nil
}

var testSettings = GenerationSettings{
	SimilarityThreshold: 0.5,
	FallbackMaxResults:  3,
	DefaultNumQuestions: 5,
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestGenerationService_MCQDefaults(t *testing.T) {
	gen := &fakeGenerator{mcq: &rag.MCQResult{
		Items:   []rag.MCQItem{{ID: "Q1", Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1}},
		Context: "ctx",
	}}
	pub := &capturePublisher{}
	svc := NewGenerationService(gen, pub, nil, testSettings, zaptest.NewLogger(t))

	res, err := svc.Generate(context.Background(), GenerateInput{Query: "  What is a ballistic missile? ", Subject: "quiz-ui"})
	require.NoError(t, err)

	assert.Equal(t, []rag.Kind{rag.KindMCQ}, gen.calls)
	assert.Equal(t, rag.Options{NumQuestions: 5, SimilarityThreshold: 0.5, FallbackMaxResults: 3}, gen.lastOpt)
	assert.Equal(t, rag.KindMCQ, res.Kind)
	assert.Nil(t, res.Similarity)
	assert.Len(t, res.Items, 1)

	require.Len(t, pub.records, 1)
	rec := pub.records[0]
	assert.Equal(t, res.RequestID, rec.RequestID)
	assert.Equal(t, "What is a ballistic missile?", rec.Query)
	assert.Equal(t, "quiz-ui", rec.Subject)
	assert.Equal(t, model.GenerationStatusOK, rec.Status)
	assert.Equal(t, 1, rec.ReturnedCount)
	assert.Equal(t, 3, rec.ContextChars)
}

func TestGenerationService_QAOverrides(t *testing.T) {
	gen := &fakeGenerator{qa: &rag.QAResult{
		Items:           []rag.QAItem{{ID: "1", Question: "q", Answer: "a"}},
		Context:         "web",
		Similarity:      0.31,
		UsedWebFallback: true,
	}}
	pub := &capturePublisher{err: errors.New("broker down")}
	svc := NewGenerationService(gen, pub, nil, testSettings, zaptest.NewLogger(t))

	res, err := svc.Generate(context.Background(), GenerateInput{
		Query:          "q",
		Kind:           "QA",
		NumQuestions:   intPtr(0),
		UseWebFallback: boolPtr(true),
	})
	require.NoError(t, err, "publish failures must not fail the request")

	assert.Equal(t, 0, gen.lastOpt.NumQuestions)
	assert.True(t, gen.lastOpt.UseWebFallback)
	require.NotNil(t, res.Similarity)
	assert.Equal(t, 0.31, *res.Similarity)
	assert.True(t, res.UsedWebFallback)
	assert.True(t, pub.records[0].UsedWebFallback)
}

func TestGenerationService_InvalidInput(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewGenerationService(gen, nil, nil, testSettings, nil)
	ctx := context.Background()

	for name, in := range map[string]GenerateInput{
		"empty query":  {Query: " "},
		"unknown type": {Query: "q", Kind: "essay"},
		"negative num": {Query: "q", NumQuestions: intPtr(-1)},
		"too many":     {Query: "q", NumQuestions: intPtr(51)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Generate(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, gen.calls)
}

func TestGenerationService_EmptyAndFailed(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		gen := &fakeGenerator{mcq: &rag.MCQResult{Items: []rag.MCQItem{}}}
		pub := &capturePublisher{}
		svc := NewGenerationService(gen, pub, nil, testSettings, nil)

		_, err := svc.Generate(context.Background(), GenerateInput{Query: "q"})
		assert.ErrorIs(t, err, ErrNoResults)
		assert.Equal(t, model.GenerationStatusEmpty, pub.records[0].Status)
	})

	t.Run("structured output", func(t *testing.T) {
		soErr := &rag.StructuredOutputError{Kind: rag.KindQA, Raw: "nope"}
		gen := &fakeGenerator{err: soErr}
		pub := &capturePublisher{}
		svc := NewGenerationService(gen, pub, nil, testSettings, zaptest.NewLogger(t))

		_, err := svc.Generate(context.Background(), GenerateInput{Query: "q", Kind: "qa"})
		var got *rag.StructuredOutputError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, model.GenerationStatusFailed, pub.records[0].Status)
		assert.NotEmpty(t, pub.records[0].Error)
	})
}

func TestGenerationService_History(t *testing.T) {
	svc := NewGenerationService(&fakeGenerator{}, nil, staticLister{{RequestID: "a"}}, testSettings, nil)
	list, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "a", list[0].RequestID)
}
