// Package vectorstore keeps chunk embeddings in a chromem-go collection.
package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"ragquiz/internal/rag"
)

const DefaultCollection = "ragquiz_chunks"

type Config struct {
	// Path enables on-disk persistence; empty keeps the index in memory.
	Path       string
	Compress   bool
	Collection string
}

// Chunk is one indexed passage.
type Chunk struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

type Match struct {
	Chunk
	Similarity float32
}

// Store wraps one chromem collection. Reset swaps the collection, so callers
// always go through the store instead of holding the collection.
type Store struct {
	mu         sync.RWMutex
	db         *chromem.DB
	name       string
	embed      chromem.EmbeddingFunc
	collection *chromem.Collection
}

func Open(cfg Config, embedder rag.Embedder) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open vector db failed: %w", err)
		}
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}

	s := &Store{db: db, name: name, embed: embeddingFunc(embedder)}
	s.collection, err = db.GetOrCreateCollection(name, nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("open collection %s failed: %w", name, err)
	}
	return s, nil
}

// embeddingFunc lets chromem embed documents that arrive without a vector.
func embeddingFunc(embedder rag.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if embedder == nil {
			return nil, fmt.Errorf("no embedder configured for vector store")
		}
		return embedder.Embed(ctx, text)
	}
}

func (s *Store) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Metadata:  c.Metadata,
			Embedding: c.Embedding,
		})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents failed: %w", err)
	}
	return nil
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

// Reset drops every chunk by recreating the collection.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("drop collection %s failed: %w", s.name, err)
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreate collection %s failed: %w", s.name, err)
	}
	s.collection = c
	return nil
}

// Query returns up to n nearest chunks, most similar first.
func (s *Store) Query(ctx context.Context, embedding []float32, n int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n = min(n, s.collection.Count())
	if n <= 0 {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection failed: %w", err)
	}
	out := make([]Match, 0, len(results))
	for _, r := range results {
		out = append(out, Match{
			Chunk: Chunk{
				ID:        r.ID,
				Content:   r.Content,
				Metadata:  r.Metadata,
				Embedding: r.Embedding,
			},
			Similarity: r.Similarity,
		})
	}
	return out, nil
}
