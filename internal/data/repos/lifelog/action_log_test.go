package lifelog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/questlog-backend/internal/data/repos/testutil"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
)

func TestActionLogRepoWindowQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewActionLogRepo(db, testutil.Logger(t))
	now := time.Now().UTC().Truncate(time.Second)
	user := uuid.New()
	other := uuid.New()

	testutil.SeedLog(t, ctx, tx, user, now.Add(-1*time.Hour), 30, 10, "heute")
	testutil.SeedLog(t, ctx, tx, user, now.Add(-3*24*time.Hour), 45, 20, "vor drei tagen")
	testutil.SeedLog(t, ctx, tx, user, now.Add(-20*24*time.Hour), 60, 5, "lange her")
	testutil.SeedLog(t, ctx, tx, other, now.Add(-1*time.Hour), 15, 1, "fremd")

	since := now.Add(-7 * 24 * time.Hour)
	n, err := repo.Count(dbc, user, &since)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	total, err := repo.Count(dbc, user, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	rows, err := repo.ListSince(dbc, user, since, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "heute", rows[0].Notes)
	assert.Equal(t, "vor drei tagen", rows[1].Notes)

	limited, err := repo.ListSince(dbc, user, now.Add(-30*24*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	day := now.Add(-3 * 24 * time.Hour).Truncate(24 * time.Hour)
	ranged, err := repo.ListRange(dbc, user, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "vor drei tagen", ranged[0].Notes)

	all, err := repo.ListForIngest(dbc, user, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.Count(dbc, uuid.Nil, nil)
	assert.Error(t, err)
}

func TestActionLogRepoSearchNotes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewActionLogRepo(db, testutil.Logger(t))
	user := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	testutil.SeedLog(t, ctx, tx, user, now.Add(-2*time.Hour), 20, 0, testutil.AreaNotes("Atomic Habits", "Lesen", "Kleine Schritte"))
	testutil.SeedLog(t, ctx, tx, user, now.Add(-1*time.Hour), 20, 0, "Atomic habits nochmal gelesen")
	testutil.SeedLog(t, ctx, tx, user, now, 20, 0, "100% fertig")
	testutil.SeedLog(t, ctx, tx, uuid.New(), now, 20, 0, "Atomic Habits bei jemand anderem")

	rows, err := repo.SearchNotes(dbc, user, "ATOMIC habits", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Atomic habits nochmal gelesen", rows[0].Notes)

	pct, err := repo.SearchNotes(dbc, user, "0%", 10)
	require.NoError(t, err)
	assert.Len(t, pct, 1)

	none, err := repo.SearchNotes(dbc, user, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestActionLogRepoSetEarnedXPOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewActionLogRepo(db, testutil.Logger(t))
	user := uuid.New()
	l := testutil.SeedLog(t, ctx, tx, user, time.Now().UTC(), 10, 0, "x")

	require.NoError(t, repo.SetEarnedXP(dbc, user, l.ID, 42))
	require.NoError(t, repo.SetEarnedXP(dbc, user, l.ID, 99))

	rows, err := repo.ListForIngest(dbc, user, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 42, rows[0].EarnedXP)
}
