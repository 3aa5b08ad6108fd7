package steps

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

var tracer = otel.Tracer("questlog/chat")

type PipelineDeps struct {
	Log *logger.Logger

	Logs    LogStore
	Areas   AreaStore
	Streaks StreakSource

	// Embedder and Completer are left unset (or Disabled) in private mode.
	Embedder  Embedder
	Completer Completer
	Searcher  ChunkSearcher

	Config Config
	Now    func() time.Time
}

type Input struct {
	UserID        uuid.UUID
	Query         string
	TopK          int
	MinSimilarity float64
}

// Pipeline routes one question: deterministic analytics first, then retrieval
// and generation when the language model is wired.
type Pipeline struct {
	log       *logger.Logger
	cfg       Config
	now       func() time.Time
	analytics *Analytics
	retriever *Retriever
	generator *Generator
	aiEnabled bool
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	cfg := deps.Config.withDefaults()
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{
		log:       log.With("component", "ChatPipeline"),
		cfg:       cfg,
		now:       now,
		analytics: NewAnalytics(deps.Logs, deps.Areas, deps.Streaks, cfg),
		aiEnabled: isWired(deps.Embedder) && isWired(deps.Completer),
	}
	if p.aiEnabled {
		p.retriever = NewRetriever(deps.Embedder, deps.Searcher, deps.Logs, cfg)
		p.generator = NewGenerator(deps.Completer)
	}
	return p
}

// AIEnabled reports whether retrieval and generation can run at all.
func (p *Pipeline) AIEnabled() bool { return p.aiEnabled }

func (p *Pipeline) Answer(ctx context.Context, in Input) (Answer, error) {
	ctx, span := tracer.Start(ctx, "chat.answer")
	defer span.End()

	q := NewQuery(in.UserID, in.Query, p.now().In(p.cfg.Location))
	q.TopK = in.TopK
	q.MinSimilarity = in.MinSimilarity
	span.SetAttributes(attribute.Int("chat.window_days", q.Window.Days))

	ans, err := p.answer(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Warn("chat answer failed", "user_id", in.UserID, "intent", string(q.Intent), "error", err)
		return Answer{}, err
	}
	if ans.Sources == nil {
		ans.Sources = []Source{}
	}
	span.SetAttributes(
		attribute.String("chat.intent", string(ans.Intent)),
		attribute.String("chat.mode", ans.Mode),
		attribute.Int("chat.sources", len(ans.Sources)),
	)
	if m := observability.Current(); m != nil {
		m.IncChatAnswer(string(ans.Intent), ans.Mode)
	}
	p.log.Debug("chat answered", "user_id", in.UserID, "intent", string(ans.Intent), "mode", ans.Mode, "sources", len(ans.Sources))
	return ans, nil
}

func (p *Pipeline) answer(ctx context.Context, q *Query) (Answer, error) {
	ans, ok, err := p.analytics.Answer(ctx, q)
	if err != nil || ok {
		return ans, err
	}

	dataQuestion := IsDataQuestion(q.Lower)
	if !p.aiEnabled {
		if dataQuestion {
			return p.analytics.RecentList(ctx, q)
		}
		return Answer{Text: AIDisabledMessage, Sources: []Source{}, Mode: ModeDisabled}, nil
	}

	var docs []Document
	if dataQuestion {
		rctx, span := tracer.Start(ctx, "chat.retrieve")
		docs, err = p.retriever.Retrieve(rctx, q)
		span.SetAttributes(attribute.Int("chat.documents", len(docs)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if err != nil {
			return Answer{}, err
		}
	}

	gctx, span := tracer.Start(ctx, "chat.generate")
	defer span.End()
	ans, err = p.generator.Generate(gctx, q, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return ans, err
}
