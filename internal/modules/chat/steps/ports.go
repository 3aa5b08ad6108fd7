package steps

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/questlog-backend/internal/domain"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Completer runs one chat completion.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

type ChunkMatch struct {
	ID         string
	Title      string
	Content    string
	Similarity float64
	OccurredAt *time.Time
}

type ChunkSearcher interface {
	SearchSimilarChunks(ctx context.Context, vec []float32, matchCount int, minSimilarity float64, userID uuid.UUID) ([]ChunkMatch, error)
}

type StreakSource interface {
	ComputeStreak(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
}

type LogStore interface {
	CountLogs(ctx context.Context, userID uuid.UUID, since *time.Time) (int64, error)
	ListLogsSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]*types.ActivityLog, error)
	ListLogsRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error)
	SearchLogNotes(ctx context.Context, userID uuid.UUID, phrase string, limit int) ([]*types.ActivityLog, error)
}

type AreaStore interface {
	ListAreas(ctx context.Context, userID uuid.UUID) ([]*types.LifeArea, error)
}

var ErrDisabled = errors.New("external ai disabled")

// Disabled stands in for the embedder and completer when the deployment runs
// in private mode. The pipeline never calls it; it only exists so that the
// wiring stays explicit.
type Disabled struct{}

func (Disabled) Embed(context.Context, []string) ([][]float32, error) { return nil, ErrDisabled }

func (Disabled) Complete(context.Context, string, string, float64) (string, error) {
	return "", ErrDisabled
}

func isWired(v any) bool {
	switch v.(type) {
	case nil, Disabled, *Disabled:
		return false
	}
	return true
}
