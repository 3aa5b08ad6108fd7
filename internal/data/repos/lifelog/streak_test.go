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

func TestStreakFromDates(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset) }

	assert.Equal(t, 0, StreakFromDates(nil, now))
	assert.Equal(t, 3, StreakFromDates([]time.Time{day(0), day(1), day(1), day(2), day(4)}, now))
	assert.Equal(t, 0, StreakFromDates([]time.Time{day(1), day(2)}, now), "no log today breaks the streak")
}

func TestStreakFromDatesUsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	now := time.Date(2026, 5, 10, 0, 30, 0, 0, berlin)
	// 22:45 UTC on the 9th is already the 10th in Berlin.
	logged := time.Date(2026, 5, 9, 22, 45, 0, 0, time.UTC)
	assert.Equal(t, 1, StreakFromDates([]time.Time{logged}, now))
	assert.Equal(t, 0, StreakFromDates([]time.Time{logged}, time.Date(2026, 5, 10, 0, 30, 0, 0, time.UTC)))
}

func TestStreakRepoScansWithoutStoredFunction(t *testing.T) {
	db := testutil.DB(t)
	if db.Dialector.Name() == "postgres" {
		t.Skip("scan path is exercised on sqlite")
	}
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewStreakRepo(db, testutil.Logger(t))
	user := uuid.New()
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		testutil.SeedLog(t, ctx, tx, user, startOfDay.AddDate(0, 0, -i), 10, 0, "x")
	}
	testutil.SeedLog(t, ctx, tx, user, startOfDay.AddDate(0, 0, -6), 10, 0, "x")

	n, err := repo.Compute(dbctx.Context{Ctx: ctx, Tx: tx}, user, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
