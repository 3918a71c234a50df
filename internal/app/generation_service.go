package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragquiz/internal/model"
	"ragquiz/internal/rag"
)

const (
	maxNumQuestions = 50
	publishTimeout  = 2 * time.Second
)

type QuizGenerator interface {
	GenerateQA(ctx context.Context, query string, opts rag.Options) (*rag.QAResult, error)
	GenerateMCQ(ctx context.Context, query string, opts rag.Options) (*rag.MCQResult, error)
}

type RecordPublisher interface {
	Publish(ctx context.Context, rec model.GenerationRecord) error
}

type RecordLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.GenerationRecord, error)
}

// GenerationSettings are the per-deployment defaults applied to each request.
type GenerationSettings struct {
	SimilarityThreshold float64
	FallbackMaxResults  int
	DefaultNumQuestions int
	UseWebFallback      bool
}

type GenerationService struct {
	generator QuizGenerator
	publisher RecordPublisher
	records   RecordLister
	settings  GenerationSettings
	logger    *zap.Logger
}

func NewGenerationService(
	generator QuizGenerator,
	publisher RecordPublisher,
	records RecordLister,
	settings GenerationSettings,
	logger *zap.Logger,
) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		generator: generator,
		publisher: publisher,
		records:   records,
		settings:  settings,
		logger:    logger,
	}
}

// GenerateInput carries optional fields as pointers so an omitted value can
// fall back to the deployment default.
type GenerateInput struct {
	Query          string
	Kind           string
	NumQuestions   *int
	UseWebFallback *bool
	Subject        string
}

type GenerateResult struct {
	RequestID       string   `json:"request_id"`
	Kind            rag.Kind `json:"type"`
	Items           any      `json:"items"`
	Context         string   `json:"context"`
	Similarity      *float64 `json:"similarity,omitempty"`
	UsedWebFallback bool     `json:"used_web_fallback"`
}

func (s *GenerationService) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, rag.ErrEmptyQuery)
	}
	kind, err := rag.ParseKind(strings.ToLower(strings.TrimSpace(input.Kind)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	opts := rag.Options{
		NumQuestions:        s.settings.DefaultNumQuestions,
		UseWebFallback:      s.settings.UseWebFallback,
		SimilarityThreshold: s.settings.SimilarityThreshold,
		FallbackMaxResults:  s.settings.FallbackMaxResults,
	}
	if input.NumQuestions != nil {
		if *input.NumQuestions < 0 || *input.NumQuestions > maxNumQuestions {
			return nil, fmt.Errorf("%w: numQuestions must be between 0 and %d", ErrInvalidInput, maxNumQuestions)
		}
		opts.NumQuestions = *input.NumQuestions
	}
	if input.UseWebFallback != nil {
		opts.UseWebFallback = *input.UseWebFallback
	}

	started := time.Now()
	rec := model.GenerationRecord{
		RequestID:      uuid.NewString(),
		Subject:        input.Subject,
		Kind:           string(kind),
		Query:          query,
		RequestedCount: opts.NumQuestions,
	}
	result := &GenerateResult{RequestID: rec.RequestID, Kind: kind}

	var count int
	switch kind {
	case rag.KindQA:
		var res *rag.QAResult
		if res, err = s.generator.GenerateQA(ctx, query, opts); err == nil {
			similarity := res.Similarity
			result.Items, result.Context, result.Similarity = res.Items, res.Context, &similarity
			result.UsedWebFallback = res.UsedWebFallback
			count = len(res.Items)
		}
	default:
		var res *rag.MCQResult
		if res, err = s.generator.GenerateMCQ(ctx, query, opts); err == nil {
			result.Items, result.Context = res.Items, res.Context
			result.UsedWebFallback = res.UsedWebFallback
			count = len(res.Items)
		}
	}

	rec.DurationMS = time.Since(started).Milliseconds()
	rec.ReturnedCount = count
	rec.Similarity = result.Similarity
	rec.UsedWebFallback = result.UsedWebFallback
	rec.ContextChars = utf8.RuneCountInString(result.Context)
	switch {
	case err != nil:
		rec.Status = model.GenerationStatusFailed
		rec.Error = err.Error()
	case count == 0:
		rec.Status = model.GenerationStatusEmpty
	default:
		rec.Status = model.GenerationStatusOK
	}
	s.publish(ctx, rec)

	if err != nil {
		var soErr *rag.StructuredOutputError
		if errors.As(err, &soErr) {
			s.logger.Warn("model output could not be recovered",
				zap.String("request_id", rec.RequestID),
				zap.Int("raw_len", len(soErr.Raw)),
			)
		}
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoResults
	}
	return result, nil
}

// publish logs failures and never fails the request.
func (s *GenerationService) publish(ctx context.Context, rec model.GenerationRecord) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, rec); err != nil {
		s.logger.Warn("publish generation record failed",
			zap.String("request_id", rec.RequestID),
			zap.Error(err),
		)
	}
}

func (s *GenerationService) History(ctx context.Context, limit int) ([]model.GenerationRecord, error) {
	return s.records.ListRecent(ctx, limit)
}
