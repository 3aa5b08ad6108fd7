package chat

import (
	"context"
	"time"

	"github.com/yungbote/questlog-backend/internal/data/repos"
	"github.com/yungbote/questlog-backend/internal/modules/chat/steps"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
)

type UsecasesDeps struct {
	Log *logger.Logger

	Repos repos.Repos

	// Embedder and Completer stay nil in private mode.
	Embedder steps.Embedder
	AI       steps.Completer
	// Vec, when set, replaces the in-database similarity scan.
	Vec qdrant.VectorStore

	Config steps.Config
	Now    func() time.Time
}

type Usecases struct {
	deps     UsecasesDeps
	pipeline *steps.Pipeline
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	store := NewStore(deps.Repos)
	var searcher steps.ChunkSearcher = NewDBSearcher(deps.Repos.Chunks)
	if deps.Vec != nil {
		searcher = NewVectorSearcher(deps.Vec, deps.Repos.Chunks)
	}
	var embedder steps.Embedder = steps.Disabled{}
	if deps.Embedder != nil {
		embedder = deps.Embedder
	}
	var completer steps.Completer = steps.Disabled{}
	if deps.AI != nil {
		completer = deps.AI
	}
	return Usecases{
		deps: deps,
		pipeline: steps.NewPipeline(steps.PipelineDeps{
			Log:       deps.Log,
			Logs:      store,
			Areas:     store,
			Streaks:   store,
			Embedder:  embedder,
			Completer: completer,
			Searcher:  searcher,
			Config:    deps.Config,
			Now:       deps.Now,
		}),
	}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return New(u.deps)
}

type (
	AnswerInput = steps.Input
	Answer      = steps.Answer
	Source      = steps.Source
)

func (u Usecases) Answer(ctx context.Context, in AnswerInput) (Answer, error) {
	return u.pipeline.Answer(ctx, in)
}

func (u Usecases) AIEnabled() bool { return u.pipeline.AIEnabled() }
