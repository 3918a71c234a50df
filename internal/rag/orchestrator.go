package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	DefaultSimilarityThreshold = 0.5

	fallbackQueryTemplate = "Information regarding: %s"
	generationTemperature = 0.0

	charsPerQuestion = 300
	minAutoQuestions = 3
	maxAutoQuestions = 12
)

// Dependencies are the collaborators a Generator needs. Embedder and Search
// are optional: without an embedder every score is 0, without a search
// provider the fallback yields nothing.
type Dependencies struct {
	Retriever Retriever
	Embedder  Embedder
	Model     GenerativeModel
	Search    SearchProvider
	Logger    *zap.Logger
}

// Options tune a single generation call.
type Options struct {
	// NumQuestions <= 0 sizes the batch from the context length.
	NumQuestions        int
	UseWebFallback      bool
	SimilarityThreshold float64
	FallbackMaxResults  int
}

// DefaultOptions returns the options used when the caller has no preference.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: DefaultSimilarityThreshold,
		FallbackMaxResults:  DefaultFallbackResults,
	}
}

// GenerationRequest is what gets rendered into a prompt.
type GenerationRequest struct {
	Context      string
	NumQuestions int
	Schema       Schema
}

type QAResult struct {
	Items           []QAItem
	Context         string
	Similarity      float64
	UsedWebFallback bool
}

type MCQResult struct {
	Items           []MCQItem
	Context         string
	UsedWebFallback bool
}

// Generator runs retrieve, score, gate, optional web fallback, prompt,
// generate and recover for one query. It holds no per-call state.
type Generator struct {
	retriever Retriever
	model     GenerativeModel
	scorer    *Scorer
	fallback  *WebFallback
	logger    *zap.Logger
}

func NewGenerator(deps Dependencies) (*Generator, error) {
	if deps.Retriever == nil {
		return nil, ErrMissingRetriever
	}
	if deps.Model == nil {
		return nil, ErrMissingModel
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		retriever: deps.Retriever,
		model:     deps.Model,
		scorer:    NewScorer(deps.Embedder, logger),
		fallback:  NewWebFallback(deps.Search, logger),
		logger:    logger,
	}, nil
}

type gatheredContext struct {
	text         string
	similarity   float64
	usedFallback bool
}

// GenerateQA returns QA pairs with the context they were drawn from and the
// similarity of that context to the query.
func (g *Generator) GenerateQA(ctx context.Context, query string, opts Options) (*QAResult, error) {
	gathered, err := g.gatherContext(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	items, err := generateItems[QAItem](ctx, g, QASchema, gathered.text, opts.NumQuestions)
	if err != nil {
		return nil, err
	}
	return &QAResult{
		Items:           items,
		Context:         gathered.text,
		Similarity:      gathered.similarity,
		UsedWebFallback: gathered.usedFallback,
	}, nil
}

// GenerateMCQ returns multiple-choice questions and their context. An empty
// context short-circuits to an empty result without calling the model.
func (g *Generator) GenerateMCQ(ctx context.Context, query string, opts Options) (*MCQResult, error) {
	gathered, err := g.gatherContext(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if gathered.text == "" {
		g.logger.Warn("no context available, skipping mcq generation", zap.String("query", query))
		return &MCQResult{Items: []MCQItem{}, Context: ""}, nil
	}
	items, err := generateItems[MCQItem](ctx, g, MCQSchema, gathered.text, opts.NumQuestions)
	if err != nil {
		return nil, err
	}
	return &MCQResult{
		Items:           items,
		Context:         gathered.text,
		UsedWebFallback: gathered.usedFallback,
	}, nil
}

func (g *Generator) gatherContext(ctx context.Context, query string, opts Options) (gatheredContext, error) {
	if strings.TrimSpace(query) == "" {
		return gatheredContext{}, ErrEmptyQuery
	}

	chunks, err := g.retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		return gatheredContext{}, fmt.Errorf("retrieve context failed: %w", err)
	}
	text := joinChunks(chunks)
	similarity := g.scorer.Score(ctx, query, text)
	g.logger.Info("context retrieved",
		zap.Int("chunks", len(chunks)),
		zap.Int("context_chars", utf8.RuneCountInString(text)),
		zap.Float64("similarity", similarity),
		zap.Float64("threshold", opts.SimilarityThreshold),
	)

	out := gatheredContext{text: text, similarity: similarity}
	if text != "" && similarity >= opts.SimilarityThreshold {
		return out, nil
	}
	if !opts.UseWebFallback {
		g.logger.Info("context below threshold, web fallback disabled")
		return out, nil
	}

	webText := g.fallback.Search(ctx, fmt.Sprintf(fallbackQueryTemplate, query), opts.FallbackMaxResults)
	if webText == "" {
		g.logger.Info("web fallback returned nothing, keeping retrieved context")
		return out, nil
	}
	// The rescore describes the returned context; it never re-enters the gate.
	rescored := g.scorer.Score(ctx, query, webText)
	g.logger.Info("context replaced by web results",
		zap.Float64("previous_similarity", similarity),
		zap.Float64("similarity", rescored),
	)
	out.text = webText
	out.similarity = rescored
	out.usedFallback = true
	return out, nil
}

func joinChunks(chunks []ContextChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// ResolveQuestionCount returns requested when positive, otherwise one question
// per 300 characters of context bounded to [3, 12].
func ResolveQuestionCount(requested int, contextText string) int {
	if requested > 0 {
		return requested
	}
	n := utf8.RuneCountInString(contextText) / charsPerQuestion
	return max(minAutoQuestions, min(maxAutoQuestions, n))
}

func generateItems[T Item](ctx context.Context, g *Generator, schema Schema, contextText string, requested int) ([]T, error) {
	req := GenerationRequest{
		Context:      contextText,
		NumQuestions: ResolveQuestionCount(requested, contextText),
		Schema:       schema,
	}
	prompt, err := BuildPrompt(req.Schema, req.Context, req.NumQuestions)
	if err != nil {
		return nil, err
	}

	g.logger.Info("generating items", zap.String("kind", string(schema.Kind)), zap.Int("num_questions", req.NumQuestions))
	raw, err := g.model.Complete(ctx, prompt, generationTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate %s failed: %w", schema.Kind, err)
	}

	outcome, err := Recover[T](raw, schema, StrategiesFor(schema.Kind))
	if err != nil {
		g.logger.Error("structured output recovery failed",
			zap.String("kind", string(schema.Kind)),
			zap.String("raw", raw),
			zap.Error(err),
		)
		return nil, err
	}
	g.logger.Info("items recovered",
		zap.String("strategy", string(outcome.Strategy)),
		zap.Int("items", len(outcome.Items)),
	)
	return outcome.Items, nil
}
