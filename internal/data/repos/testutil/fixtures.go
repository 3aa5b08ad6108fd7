package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

func SeedLog(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, occurredAt time.Time, durationMin int, xp int, notes string) *types.ActivityLog {
	tb.Helper()
	l := &types.ActivityLog{
		ID:         uuid.New(),
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
		Notes:      notes,
		EarnedXP:   xp,
	}
	if durationMin >= 0 {
		d := durationMin
		l.DurationMin = &d
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed log: %v", err)
	}
	return l
}

func SeedArea(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name, category string, createdAt time.Time) *types.LifeArea {
	tb.Helper()
	a := &types.LifeArea{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Category:  category,
		CreatedAt: createdAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed area: %v", err)
	}
	return a
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceID, content string, vec []float32, occurredAt *time.Time) *types.DocumentChunk {
	tb.Helper()
	c := &types.DocumentChunk{
		ID:          uuid.New(),
		UserID:      userID,
		SourceTable: types.SourceTableActionLogs,
		SourceID:    sourceID,
		Title:       "Log",
		Content:     content,
		OccurredAt:  occurredAt,
	}
	if err := c.SetVector(vec); err != nil {
		tb.Fatalf("seed chunk vector: %v", err)
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

// AreaNotes renders wrapped notes carrying an area and a delta body.
func AreaNotes(title, area, body string) string {
	return `{"title":"` + title + `","area":"` + area + `","delta":[{"insert":"` + body + `\n"}]}`
}
