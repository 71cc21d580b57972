// Package embcache caches query embeddings in the key-value store so
// repeated queries skip the embedding provider entirely.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/EduplannerDev/Eduplanner-sub004/internal/db"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/domain"
	"github.com/EduplannerDev/Eduplanner-sub004/internal/metrics"
)

const keyPrefix = "embcache:"

// Embedder wraps an inner embedder with a KV-store cache. Cache failures
// are logged and the request proceeds to the inner embedder; a broken
// cache must never break retrieval.
type Embedder struct {
	inner  domain.Embedder
	store  db.KVStore
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

func NewEmbedder(inner domain.Embedder, store db.KVStore, model string, ttl time.Duration, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		inner:  inner,
		store:  store,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.cacheKey(text)

	if cached, err := e.store.Get(ctx, key); err == nil {
		if vec, decErr := decodeVector(cached); decErr == nil {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return domain.EmbeddingResult{Embedding: vec}, nil
		} else {
			e.logger.Warn("discarding corrupt cached embedding", zap.String("key", key), zap.Error(decErr))
		}
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		e.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if err := e.writeCache(ctx, key, result.Embedding); err != nil {
		e.logger.Warn("embedding cache write failed", zap.Error(err))
	}

	return result, nil
}

// writeCache stores the vector, without expiry when ttl is zero.
func (e *Embedder) writeCache(ctx context.Context, key string, vec []float32) error {
	if e.ttl <= 0 {
		return e.store.Set(ctx, key, encodeVector(vec))
	}
	return e.store.SetWithTTL(ctx, key, encodeVector(vec), e.ttl)
}

// cacheKey hashes model and text together so a model change invalidates
// every cached vector.
func (e *Embedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(e.model + "|" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload length %d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
