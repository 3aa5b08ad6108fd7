package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// CachedEmbedder memoizes embeddings per (model, text). Cache failures are
// logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
	model string
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedEmbedder(inner Embedder, cache Cache, model string, ttl time.Duration, log *logger.Logger) *CachedEmbedder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedEmbedder{inner: inner, cache: cache, model: model, ttl: ttl, log: log.With("service", "CachedEmbedder")}
}

func (e *CachedEmbedder) keyFor(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return "emb:" + hex.EncodeToString(sum[:])
}

func (e *CachedEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	var missIdx []int
	var missText []string
	for i, text := range inputs {
		if vec, ok := e.lookup(ctx, text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missText = append(missText, text)
	}
	if len(missText) == 0 {
		return out, nil
	}

	fresh, err := e.inner.Embed(ctx, missText)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		if j >= len(fresh) {
			break
		}
		out[i] = fresh[j]
		raw, err := json.Marshal(fresh[j])
		if err != nil {
			continue
		}
		if err := e.cache.Set(ctx, e.keyFor(missText[j]), raw, e.ttl); err != nil {
			e.log.Warn("embedding cache write failed", "error", err)
		}
	}
	return out, nil
}

func (e *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	raw, ok, err := e.cache.Get(ctx, e.keyFor(text))
	if err != nil {
		e.log.Warn("embedding cache read failed", "error", err)
		return nil, false
	}
	var vec []float32
	if ok && json.Unmarshal(raw, &vec) == nil && len(vec) > 0 {
		observability.Current().IncEmbeddingCache(true)
		return vec, true
	}
	observability.Current().IncEmbeddingCache(false)
	return nil, false
}
