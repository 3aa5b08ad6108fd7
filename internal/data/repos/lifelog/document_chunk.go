package lifelog

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

type ChunkHit struct {
	Chunk      *types.DocumentChunk
	Similarity float64
}

type DocumentChunkRepo interface {
	// Upsert inserts or updates by (user_id, source_table, source_id).
	Upsert(dbc dbctx.Context, rows []*types.DocumentChunk) error
	GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.DocumentChunk, error)
	GetBySource(dbc dbctx.Context, userID uuid.UUID, sourceTable string, sourceIDs []string) ([]*types.DocumentChunk, error)
	// ListBySourcePrefix returns rows whose source_id starts with prefix.
	ListBySourcePrefix(dbc dbctx.Context, userID uuid.UUID, sourceTable, prefix string) ([]*types.DocumentChunk, error)
	DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// SearchSimilar ranks the user's chunks by cosine similarity to vec and
	// returns at most matchCount hits scoring >= minSimilarity.
	SearchSimilar(dbc dbctx.Context, userID uuid.UUID, vec []float32, matchCount int, minSimilarity float64) ([]ChunkHit, error)
}

type documentChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentChunkRepo(db *gorm.DB, baseLog *logger.Logger) DocumentChunkRepo {
	return &documentChunkRepo{db: db, log: baseLog.With("repo", "DocumentChunkRepo")}
}

func (r *documentChunkRepo) Upsert(dbc dbctx.Context, rows []*types.DocumentChunk) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		row.UpdatedAt = now
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
	}
	return dbc.Conn(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "source_table"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"content",
			"embedding",
			"occurred_at",
			"metadata",
			"updated_at",
		}),
	}).Create(&rows).Error
}

func (r *documentChunkRepo) GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.DocumentChunk, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if len(ids) == 0 {
		return []*types.DocumentChunk{}, nil
	}
	var out []*types.DocumentChunk
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentChunkRepo) GetBySource(dbc dbctx.Context, userID uuid.UUID, sourceTable string, sourceIDs []string) ([]*types.DocumentChunk, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if len(sourceIDs) == 0 {
		return []*types.DocumentChunk{}, nil
	}
	var out []*types.DocumentChunk
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND source_table = ? AND source_id IN ?", userID, sourceTable, sourceIDs).
		Order("source_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentChunkRepo) ListBySourcePrefix(dbc dbctx.Context, userID uuid.UUID, sourceTable, prefix string) ([]*types.DocumentChunk, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	var out []*types.DocumentChunk
	if err := dbc.Conn(r.db).
		Where("user_id = ? AND source_table = ? AND source_id LIKE ? ESCAPE '\\'", userID, sourceTable, escapeLike(prefix)+"%").
		Order("source_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentChunkRepo) DeleteByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user_id")
	}
	if len(ids) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&types.DocumentChunk{}).Error
}

func (r *documentChunkRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.Conn(r.db).Model(&types.DocumentChunk{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *documentChunkRepo) SearchSimilar(dbc dbctx.Context, userID uuid.UUID, vec []float32, matchCount int, minSimilarity float64) ([]ChunkHit, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if len(vec) == 0 || matchCount <= 0 {
		return []ChunkHit{}, nil
	}
	var rows []*types.DocumentChunk
	if err := dbc.Conn(r.db).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	hits := make([]ChunkHit, 0, len(rows))
	for _, row := range rows {
		sim := cosine(vec, row.Vector())
		if sim < minSimilarity {
			continue
		}
		hits = append(hits, ChunkHit{Chunk: row, Similarity: sim})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > matchCount {
		hits = hits[:matchCount]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
