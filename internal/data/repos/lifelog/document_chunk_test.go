package lifelog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/questlog-backend/internal/data/repos/testutil"
	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
)

func chunk(t *testing.T, user uuid.UUID, sourceID, content string, vec []float32) *types.DocumentChunk {
	t.Helper()
	c := &types.DocumentChunk{
		UserID:      user,
		SourceTable: types.SourceTableActionLogs,
		SourceID:    sourceID,
		Title:       "Log",
		Content:     content,
	}
	require.NoError(t, c.SetVector(vec))
	return c
}

func TestDocumentChunkRepoUpsertIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewDocumentChunkRepo(db, testutil.Logger(t))
	user := uuid.New()

	require.NoError(t, repo.Upsert(dbc, []*types.DocumentChunk{chunk(t, user, "log-1#0", "erste fassung", []float32{1, 0})}))
	require.NoError(t, repo.Upsert(dbc, []*types.DocumentChunk{chunk(t, user, "log-1#0", "zweite fassung", []float32{0, 1})}))

	n, err := repo.CountByUser(dbc, user)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := repo.GetBySource(dbc, user, types.SourceTableActionLogs, []string{"log-1#0"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "zweite fassung", rows[0].Content)
	assert.Equal(t, []float32{0, 1}, rows[0].Vector())

	// Same source id under another user is a distinct row.
	require.NoError(t, repo.Upsert(dbc, []*types.DocumentChunk{chunk(t, uuid.New(), "log-1#0", "fremd", []float32{1, 0})}))
	n, err = repo.CountByUser(dbc, user)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDocumentChunkRepoSearchSimilar(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewDocumentChunkRepo(db, testutil.Logger(t))
	user := uuid.New()
	at := time.Now().UTC().Truncate(time.Second)

	testutil.SeedChunk(t, ctx, tx, user, "a#0", "exakt", []float32{1, 0, 0}, &at)
	testutil.SeedChunk(t, ctx, tx, user, "b#0", "nah", []float32{0.9, 0.1, 0}, &at)
	testutil.SeedChunk(t, ctx, tx, user, "c#0", "orthogonal", []float32{0, 1, 0}, &at)
	testutil.SeedChunk(t, ctx, tx, uuid.New(), "d#0", "fremd", []float32{1, 0, 0}, &at)

	hits, err := repo.SearchSimilar(dbc, user, []float32{1, 0, 0}, 5, 0.2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "exakt", hits[0].Chunk.Content)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "nah", hits[1].Chunk.Content)

	capped, err := repo.SearchSimilar(dbc, user, []float32{1, 0, 0}, 1, 0)
	require.NoError(t, err)
	assert.Len(t, capped, 1)

	byID, err := repo.GetByIDs(dbc, user, []uuid.UUID{hits[0].Chunk.ID})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine(nil, nil))
}

func TestDocumentChunkRepoPrefixListAndDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewDocumentChunkRepo(db, testutil.Logger(t))
	user := uuid.New()
	require.NoError(t, repo.Upsert(dbc, []*types.DocumentChunk{
		chunk(t, user, "log-1#0", "a", []float32{1, 0}),
		chunk(t, user, "log-1#1", "b", []float32{1, 0}),
		chunk(t, user, "log-10#0", "c", []float32{1, 0}),
		chunk(t, uuid.New(), "log-1#2", "fremd", []float32{1, 0}),
	}))

	rows, err := repo.ListBySourcePrefix(dbc, user, types.SourceTableActionLogs, "log-1#")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "log-1#0", rows[0].SourceID)
	assert.Equal(t, "log-1#1", rows[1].SourceID)

	require.NoError(t, repo.DeleteByIDs(dbc, user, []uuid.UUID{rows[1].ID}))
	n, err := repo.CountByUser(dbc, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
