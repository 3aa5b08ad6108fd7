package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/questlog-backend/internal/data/db"
	"github.com/yungbote/questlog-backend/internal/data/repos"
	httpx "github.com/yungbote/questlog-backend/internal/http"
	httpH "github.com/yungbote/questlog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/questlog-backend/internal/http/middleware"
	"github.com/yungbote/questlog-backend/internal/modules/chat"
	"github.com/yungbote/questlog-backend/internal/modules/ingest"
	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
	"github.com/yungbote/questlog-backend/internal/platform/oaihttp"
	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
	"github.com/yungbote/questlog-backend/internal/platform/rediscache"
	"github.com/yungbote/questlog-backend/internal/services/auth"
)

const collectorInterval = 15 * time.Second

type App struct {
	Log    *logger.Logger
	Cfg    Config
	DB     *gorm.DB
	Repos  repos.Repos
	Chat   chat.Usecases
	Ingest ingest.Usecases

	pg           *db.PostgresService
	redis        *goredis.Client
	vec          qdrant.VectorStore
	shutdownOTel func(context.Context) error
}

// New connects the stores and wires the use cases. Nothing outbound is
// constructed in private mode.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}

	observability.Init(cfg.Metrics.Enabled)
	a.shutdownOTel = observability.InitOTel(ctx, log, cfg.OTel)

	log.Info("Connecting to Postgres...")
	a.pg, err = db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.DB = a.pg.DB()
	a.Repos = repos.New(a.DB, log)

	if err := a.wireUsecases(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wireUsecases(ctx context.Context) error {
	cfg := a.Cfg
	chatDeps := chat.UsecasesDeps{
		Log:    a.Log,
		Repos:  a.Repos,
		Config: cfg.ChatPipelineConfig(),
	}
	ingestDeps := ingest.UsecasesDeps{
		Log:    a.Log,
		Repos:  a.Repos,
		Config: cfg.IngestPipelineConfig(),
	}

	if !cfg.AIEnabled() {
		a.Log.Info("private mode: embeddings and generation are not wired")
		a.Chat = chat.New(chatDeps)
		a.Ingest = ingest.New(ingestDeps)
		return nil
	}

	client, err := oaihttp.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}
	chatDeps.AI = client
	chatDeps.Embedder = client
	ingestDeps.Embedder = client

	if cfg.Redis.Enabled() {
		rdb, err := rediscache.Connect(ctx, a.Log, cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		a.redis = rdb
		cache := rediscache.NewCache(rdb, cfg.Redis.Prefix)
		chatDeps.Embedder = rediscache.NewCachedEmbedder(client, cache, cfg.LLM.EmbedModel, cfg.Redis.TTL, a.Log)
	}

	backend, err := resolveRetrievalBackend(cfg.Retrieval.Backend, cfg.Qdrant)
	if err != nil {
		return err
	}
	if backend == RetrievalBackendQdrant {
		vs, err := qdrant.NewVectorStore(ctx, a.Log, cfg.Qdrant.Normalize())
		if err != nil {
			return fmt.Errorf("init qdrant: %w", err)
		}
		a.vec = instrumentVectorStore(vs)
		chatDeps.Vec = a.vec
		ingestDeps.Vec = a.vec
	}

	a.Chat = chat.New(chatDeps)
	a.Ingest = ingest.New(ingestDeps)
	a.Log.Info("AI wired", "retrieval_backend", string(backend), "embedding_cache", a.redis != nil)
	return nil
}

func (a *App) Migrate() error {
	a.Log.Info("Migrating schema...")
	return db.AutoMigrateAll(a.DB)
}

// Router builds the HTTP engine. It needs the token secret.
func (a *App) Router() (*gin.Engine, error) {
	verifier, err := auth.NewTokenVerifier(a.Log, a.Cfg.Auth)
	if err != nil {
		return nil, err
	}
	if a.Cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	serviceName := ""
	if a.Cfg.OTel.Enabled {
		serviceName = a.Cfg.OTel.ServiceName
	}
	return httpx.NewRouter(httpx.RouterConfig{
		Log:             a.Log,
		Metrics:         observability.Current(),
		ServiceName:     serviceName,
		AllowedOrigins:  a.Cfg.CORS.AllowedOrigins,
		MaxRequestBytes: a.Cfg.HTTP.MaxRequestBytes,
		AuthMiddleware:  httpMW.NewAuthMiddleware(a.Log, verifier),
		ChatHandler:     httpH.NewChatHandler(a.Chat, a.Cfg.Chat.MaxQueryChars),
		IngestHandler:   httpH.NewIngestHandler(a.Ingest),
		HealthHandler:   httpH.NewHealthHandler(a.ping),
	}), nil
}

// Serve runs the HTTP server and the metrics collectors until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	router, err := a.Router()
	if err != nil {
		return err
	}
	m := observability.Current()
	m.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
	m.StartPostgresCollector(ctx, a.Log, a.DB, collectorInterval)
	if a.redis != nil {
		m.StartRedisCollector(ctx, a.Log, a.redis, collectorInterval)
	}
	return httpx.NewServer(a.Log, a.Cfg.HTTP, router).Run(ctx)
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("postgres close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
