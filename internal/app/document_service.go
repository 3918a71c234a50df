package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragquiz/internal/model"
	"ragquiz/internal/pkg/docextract"
	"ragquiz/internal/vectorstore"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	embeddingBatchSize  = 16
)

const (
	ClearTypeInfo    = "info"
	ClearTypeSuccess = "success"
)

type ChunkIndex interface {
	Add(ctx context.Context, chunks []vectorstore.Chunk) error
	Count() int
	Reset() error
}

type DocumentRegistry interface {
	Create(ctx context.Context, doc *model.Document) error
	List(ctx context.Context) ([]model.Document, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type DocumentService struct {
	index        ChunkIndex
	registry     DocumentRegistry
	embedder     BatchEmbedder
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

func NewDocumentService(
	index ChunkIndex,
	registry DocumentRegistry,
	embedder BatchEmbedder,
	chunkSize, chunkOverlap int,
	logger *zap.Logger,
) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = min(defaultChunkOverlap, chunkSize/2)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		index:        index,
		registry:     registry,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

type IngestInput struct {
	Filename string
	Data     []byte
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest extracts, chunks, embeds and indexes one upload, then registers it.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.Filename == "" || len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	doc, err := docextract.Extract(input.Filename, input.Data)
	if err != nil {
		return nil, err
	}

	var chunks []vectorstore.Chunk
	for _, section := range doc.Sections {
		for i, text := range chunkText(section.Text, s.chunkSize, s.chunkOverlap) {
			chunks = append(chunks, vectorstore.Chunk{
				ID:      uuid.NewString(),
				Content: text,
				Metadata: map[string]string{
					"source": doc.Name,
					"page":   strconv.Itoa(section.Label),
					"chunk":  strconv.Itoa(i),
				},
			})
		}
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := s.index.Add(ctx, chunks); err != nil {
		return nil, err
	}

	record := model.Document{
		Name:      doc.Name,
		Ext:       doc.Ext,
		Sections:  len(doc.Sections),
		Chunks:    len(chunks),
		SizeBytes: int64(len(input.Data)),
	}
	if err := s.registry.Create(ctx, &record); err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		zap.String("name", record.Name),
		zap.Int("sections", record.Sections),
		zap.Int("chunks", record.Chunks),
	)
	return &IngestResult{Document: record, ChunkCount: len(chunks)}, nil
}

// embedChunks fills Embedding in batches to stay under provider limits.
func (s *DocumentService) embedChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	for start := 0; start < len(chunks); start += embeddingBatchSize {
		end := min(start+embeddingBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks failed: %w", err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embedding count mismatch: got %d want %d", len(vecs), len(texts))
		}
		for i, v := range vecs {
			chunks[start+i].Embedding = v
		}
	}
	return nil
}

type ClearResult struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Clear empties the vector index and the document registry.
func (s *DocumentService) Clear(ctx context.Context) (*ClearResult, error) {
	if s.index.Count() == 0 {
		if _, err := s.registry.DeleteAll(ctx); err != nil {
			return nil, err
		}
		return &ClearResult{Message: "Database is already empty.", Type: ClearTypeInfo}, nil
	}

	if err := s.index.Reset(); err != nil {
		return nil, err
	}
	removed, err := s.registry.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("vector database cleared", zap.Int64("documents", removed))
	return &ClearResult{Message: "Vector database cleared successfully.", Type: ClearTypeSuccess}, nil
}

func (s *DocumentService) List(ctx context.Context) ([]model.Document, error) {
	return s.registry.List(ctx)
}

// chunkText splits text into overlapping chunks by rune count.
func chunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	var chunks []string
	for start := 0; ; start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
