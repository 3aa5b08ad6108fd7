package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/yungbote/questlog-backend/internal/data/repos"
	types "github.com/yungbote/questlog-backend/internal/domain"
	"github.com/yungbote/questlog-backend/internal/domain/lifelog"
	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/pkg/dbctx"
	"github.com/yungbote/questlog-backend/internal/platform/apierr"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
)

const chunkTitle = "Log"

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Config struct {
	// Enabled is true only when external embeddings are allowed and the
	// deployment is not in private mode.
	Enabled      bool
	Concurrency  int
	BatchSize    int
	ChunkSize    int
	ChunkOverlap int
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 4
	}
	if c.BatchSize < 1 {
		c.BatchSize = 64
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = defaultChunkOverlap
	}
	return c
}

type UsecasesDeps struct {
	Log      *logger.Logger
	Repos    repos.Repos
	Embedder Embedder
	// Vec mirrors written vectors into Qdrant when the qdrant backend is on.
	Vec    qdrant.VectorStore
	Config Config
}

type Input struct {
	UserID uuid.UUID
	Since  *time.Time
}

type Result struct {
	Logs    int  `json:"logs"`
	Chunks  int  `json:"chunks"`
	Skipped bool `json:"skipped,omitempty"`
}

type Usecases struct {
	deps UsecasesDeps
	cfg  Config
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.With("module", "ingest")
	return Usecases{deps: deps, cfg: deps.Config.withDefaults()}
}

func (u Usecases) Enabled() bool {
	return u.cfg.Enabled && u.deps.Embedder != nil
}

// Run indexes the user's logs into document chunks. With embeddings off it
// only counts the logs.
func (u Usecases) Run(ctx context.Context, in Input) (Result, error) {
	if in.UserID == uuid.Nil {
		return Result{}, apierr.Auth(fmt.Errorf("missing user id"))
	}
	logs, err := u.deps.Repos.Logs.ListForIngest(dbctx.Of(ctx), in.UserID, in.Since)
	if err != nil {
		return Result{}, apierr.Upstream("store", err)
	}
	out := Result{Logs: len(logs)}
	if !u.Enabled() {
		out.Skipped = true
		u.deps.Log.Info("ingest skipped, external embeddings disabled", "user_id", in.UserID, "logs", out.Logs)
		return out, nil
	}

	started := time.Now()
	var written int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.cfg.Concurrency)
	for _, l := range logs {
		l := l
		if l == nil {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			n, err := u.indexLog(gctx, in.UserID, l)
			if err != nil {
				return err
			}
			atomic.AddInt64(&written, int64(n))
			return nil
		})
	}
	err = g.Wait()
	out.Chunks = int(atomic.LoadInt64(&written))
	observability.Current().AddIngestedChunks("written", out.Chunks)
	if err != nil {
		u.deps.Log.Warn("ingest failed", "user_id", in.UserID, "chunks", out.Chunks, "error", err)
		return out, err
	}
	u.deps.Log.Info("ingest done",
		"user_id", in.UserID,
		"logs", out.Logs,
		"chunks", out.Chunks,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return out, nil
}

func (u Usecases) indexLog(ctx context.Context, userID uuid.UUID, l *types.ActivityLog) (int, error) {
	text := lifelog.IndexText(l.Notes, l.OccurredAt.UTC().Format(time.RFC3339))
	pieces := ChunkText(text, u.cfg.ChunkSize, u.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		return 0, nil
	}

	vecs, err := u.embed(ctx, pieces)
	if err != nil {
		return 0, err
	}

	sourceIDs := make([]string, len(pieces))
	for i := range pieces {
		sourceIDs[i] = fmt.Sprintf("%s#%d", l.ID, i)
	}
	dbc := dbctx.Of(ctx)
	// Existing rows keep their ids so the Qdrant mirror stays in step.
	existing, err := u.deps.Repos.Chunks.GetBySource(dbc, userID, types.SourceTableActionLogs, sourceIDs)
	if err != nil {
		return 0, apierr.Upstream("store", err)
	}
	ids := make(map[string]uuid.UUID, len(existing))
	for _, row := range existing {
		if row != nil {
			ids[row.SourceID] = row.ID
		}
	}

	meta, err := json.Marshal(map[string]any{"template_id": l.TemplateID})
	if err != nil {
		return 0, err
	}
	occurred := l.OccurredAt.UTC()
	rows := make([]*types.DocumentChunk, 0, len(pieces))
	for i, content := range pieces {
		id, ok := ids[sourceIDs[i]]
		if !ok {
			id = uuid.New()
		}
		row := &types.DocumentChunk{
			ID:          id,
			UserID:      userID,
			SourceTable: types.SourceTableActionLogs,
			SourceID:    sourceIDs[i],
			Title:       chunkTitle,
			Content:     content,
			OccurredAt:  &occurred,
			Metadata:    datatypes.JSON(meta),
		}
		if err := row.SetVector(vecs[i]); err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	if err := u.deps.Repos.Chunks.Upsert(dbc, rows); err != nil {
		return 0, apierr.Upstream("store", err)
	}

	if err := u.pruneStale(ctx, userID, l.ID.String()+"#", sourceIDs); err != nil {
		return 0, err
	}

	if u.deps.Vec != nil {
		points := make([]qdrant.Point, 0, len(rows))
		for i, row := range rows {
			points = append(points, qdrant.Point{
				ID:     row.ID.String(),
				Vector: vecs[i],
				Payload: map[string]any{
					"source_id":   row.SourceID,
					"occurred_at": occurred.Format(time.RFC3339),
				},
			})
		}
		if err := u.deps.Vec.Upsert(ctx, userID.String(), points); err != nil {
			return 0, apierr.Upstream("vector_upsert", err)
		}
	}
	return len(rows), nil
}

// pruneStale drops chunks left over from a longer earlier version of a log.
func (u Usecases) pruneStale(ctx context.Context, userID uuid.UUID, prefix string, keep []string) error {
	dbc := dbctx.Of(ctx)
	rows, err := u.deps.Repos.Chunks.ListBySourcePrefix(dbc, userID, types.SourceTableActionLogs, prefix)
	if err != nil {
		return apierr.Upstream("store", err)
	}
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	var stale []uuid.UUID
	for _, row := range rows {
		if row == nil {
			continue
		}
		if _, ok := kept[row.SourceID]; !ok {
			stale = append(stale, row.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := u.deps.Repos.Chunks.DeleteByIDs(dbc, userID, stale); err != nil {
		return apierr.Upstream("store", err)
	}
	observability.Current().AddIngestedChunks("pruned", len(stale))
	if u.deps.Vec != nil {
		ids := make([]string, len(stale))
		for i, id := range stale {
			ids[i] = id.String()
		}
		if err := u.deps.Vec.DeleteIDs(ctx, userID.String(), ids); err != nil {
			return apierr.Upstream("vector_delete", err)
		}
	}
	return nil
}

func (u Usecases) embed(ctx context.Context, pieces []string) ([][]float32, error) {
	out := make([][]float32, 0, len(pieces))
	for start := 0; start < len(pieces); start += u.cfg.BatchSize {
		end := start + u.cfg.BatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		vecs, err := u.deps.Embedder.Embed(ctx, pieces[start:end])
		if err != nil {
			return nil, apierr.Upstream("embed", err)
		}
		if len(vecs) != end-start {
			return nil, apierr.Upstream("embed", fmt.Errorf("expected %d embeddings, got %d", end-start, len(vecs)))
		}
		out = append(out, vecs...)
	}
	return out, nil
}
