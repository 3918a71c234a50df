package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ragquiz/internal/rag"
)

// EmbeddingCache stores vectors keyed by model and a digest of the text.
type EmbeddingCache struct {
	client redisv9.Cmdable
	ttl    time.Duration
}

func NewEmbeddingCache(client redisv9.Cmdable, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingCache{client: client, ttl: ttl}
}

func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, embeddingKey(model, text)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get embedding failed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached embedding failed: %w", err)
	}
	return vec, true, nil
}

func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vec []float32) error {
	payload, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding cache failed: %w", err)
	}
	if err := c.client.Set(ctx, embeddingKey(model, text), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set embedding failed: %w", err)
	}
	return nil
}

func embeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", model, hex.EncodeToString(sum[:]))
}

// NamedEmbedder is an embedder that reports which model produced its vectors.
type NamedEmbedder interface {
	rag.Embedder
	Name() string
}

// CachedEmbedder serves vectors from redis and falls back to the wrapped
// embedder. Cache errors are logged and never surface to callers.
type CachedEmbedder struct {
	inner  NamedEmbedder
	cache  *EmbeddingCache
	logger *zap.Logger
}

func NewCachedEmbedder(inner NamedEmbedder, cache *EmbeddingCache, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, cache: cache, logger: logger}
}

func (e *CachedEmbedder) Name() string { return e.inner.Name() }

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.inner.Name()
	vec, ok, err := e.cache.Get(ctx, model, text)
	if err != nil {
		e.logger.Warn("embedding cache read failed", zap.Error(err))
	}
	if ok {
		return vec, nil
	}

	vec, err = e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, model, text, vec); err != nil {
		e.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return vec, nil
}
