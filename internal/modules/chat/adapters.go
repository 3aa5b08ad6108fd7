package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/questlog-backend/internal/data/repos"
	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/modules/chat/steps"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
)

// Store exposes the lifelog repos through the pipeline's read ports.
type Store struct {
	r repos.Repos
}

func NewStore(r repos.Repos) *Store { return &Store{r: r} }

func (s *Store) CountLogs(ctx context.Context, userID uuid.UUID, since *time.Time) (int64, error) {
	return s.r.Logs.Count(dbctx.Of(ctx), userID, since)
}

func (s *Store) ListLogsSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]*types.ActivityLog, error) {
	return s.r.Logs.ListSince(dbctx.Of(ctx), userID, since, limit)
}

func (s *Store) ListLogsRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error) {
	return s.r.Logs.ListRange(dbctx.Of(ctx), userID, start, end)
}

func (s *Store) SearchLogNotes(ctx context.Context, userID uuid.UUID, phrase string, limit int) ([]*types.ActivityLog, error) {
	return s.r.Logs.SearchNotes(dbctx.Of(ctx), userID, phrase, limit)
}

func (s *Store) ListAreas(ctx context.Context, userID uuid.UUID) ([]*types.LifeArea, error) {
	return s.r.Areas.ListByUser(dbctx.Of(ctx), userID)
}

func (s *Store) ComputeStreak(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	return s.r.Streaks.Compute(dbctx.Of(ctx), userID, now)
}

// DBSearcher ranks the user's stored chunk embeddings in the database layer.
type DBSearcher struct {
	chunks repos.DocumentChunkRepo
}

func NewDBSearcher(chunks repos.DocumentChunkRepo) *DBSearcher { return &DBSearcher{chunks: chunks} }

func (s *DBSearcher) SearchSimilarChunks(ctx context.Context, vec []float32, matchCount int, minSimilarity float64, userID uuid.UUID) ([]steps.ChunkMatch, error) {
	hits, err := s.chunks.SearchSimilar(dbctx.Of(ctx), userID, vec, matchCount, minSimilarity)
	if err != nil {
		return nil, err
	}
	out := make([]steps.ChunkMatch, 0, len(hits))
	for _, h := range hits {
		out = append(out, toMatch(h.Chunk, h.Similarity))
	}
	return out, nil
}

// VectorSearcher asks Qdrant for the nearest chunk ids in the user's namespace
// and hydrates them from the database. Ids missing from the database are
// dropped.
type VectorSearcher struct {
	vec    qdrant.VectorStore
	chunks repos.DocumentChunkRepo
}

func NewVectorSearcher(vec qdrant.VectorStore, chunks repos.DocumentChunkRepo) *VectorSearcher {
	return &VectorSearcher{vec: vec, chunks: chunks}
}

func (s *VectorSearcher) SearchSimilarChunks(ctx context.Context, vec []float32, matchCount int, minSimilarity float64, userID uuid.UUID) ([]steps.ChunkMatch, error) {
	matches, err := s.vec.Search(ctx, userID.String(), vec, matchCount, minSimilarity)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if id, err := uuid.Parse(m.ID); err == nil {
			ids = append(ids, id)
		}
	}
	rows, err := s.chunks.GetByIDs(dbctx.Of(ctx), userID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*types.DocumentChunk, len(rows))
	for _, r := range rows {
		byID[r.ID.String()] = r
	}
	out := make([]steps.ChunkMatch, 0, len(matches))
	for _, m := range matches {
		if row, ok := byID[m.ID]; ok {
			out = append(out, toMatch(row, m.Score))
		}
	}
	return out, nil
}

func toMatch(c *types.DocumentChunk, sim float64) steps.ChunkMatch {
	return steps.ChunkMatch{
		ID:         c.ID.String(),
		Title:      c.Title,
		Content:    c.Content,
		Similarity: sim,
		OccurredAt: c.OccurredAt,
	}
}
