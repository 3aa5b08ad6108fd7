package app

import (
	"context"
	"time"

	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
)

// instrumentedVectorStore records every Qdrant call as an upstream call.
type instrumentedVectorStore struct {
	inner   qdrant.VectorStore
	metrics *observability.Metrics
}

func instrumentVectorStore(inner qdrant.VectorStore) qdrant.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{inner: inner, metrics: observability.Current()}
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, points []qdrant.Point) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, namespace, points)
	s.metrics.ObserveUpstream("vector_upsert", time.Since(start), err)
	return err
}

func (s *instrumentedVectorStore) Search(ctx context.Context, namespace string, vec []float32, limit int, minScore float64) ([]qdrant.Match, error) {
	start := time.Now()
	out, err := s.inner.Search(ctx, namespace, vec, limit, minScore)
	s.metrics.ObserveUpstream("vector_search", time.Since(start), err)
	return out, err
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	start := time.Now()
	err := s.inner.DeleteIDs(ctx, namespace, ids)
	s.metrics.ObserveUpstream("vector_delete", time.Since(start), err)
	return err
}
