package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/questlog-backend/internal/data/db"
	httpx "github.com/yungbote/questlog-backend/internal/http"
	"github.com/yungbote/questlog-backend/internal/modules/chat/steps"
	"github.com/yungbote/questlog-backend/internal/modules/ingest"
	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/platform/envutil"
	"github.com/yungbote/questlog-backend/internal/platform/oaihttp"
	"github.com/yungbote/questlog-backend/internal/platform/qdrant"
	"github.com/yungbote/questlog-backend/internal/platform/rediscache"
	"github.com/yungbote/questlog-backend/internal/services/auth"
)

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RetrievalConfig struct {
	Backend          RetrievalBackend `yaml:"backend"`
	SimilarityFloor  float64          `yaml:"similarity_floor"`
	MinMatchCount    int              `yaml:"min_match_count"`
	FallbackLogLimit int              `yaml:"fallback_log_limit"`
	DefaultTopK      int              `yaml:"default_top_k"`
}

type ChatConfig struct {
	MaxQueryChars int    `yaml:"max_query_chars"`
	Timezone      string `yaml:"timezone"`
}

// PrivacyConfig is the server-side switch for anything that leaves the box.
type PrivacyConfig struct {
	PrivateMode              bool `yaml:"private_mode"`
	EnableExternalEmbeddings bool `yaml:"enable_external_embeddings"`
}

type IngestConfig struct {
	Concurrency int `yaml:"concurrency"`
	BatchSize   int `yaml:"batch_size"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Config struct {
	Env       string                      `yaml:"env"`
	HTTP      httpx.ServerConfig          `yaml:"http"`
	Auth      auth.Config                 `yaml:"auth"`
	CORS      CORSConfig                  `yaml:"cors"`
	Postgres  db.PostgresConfig           `yaml:"postgres"`
	LLM       oaihttp.Config              `yaml:"llm"`
	Retrieval RetrievalConfig             `yaml:"retrieval"`
	Chat      ChatConfig                  `yaml:"chat"`
	Privacy   PrivacyConfig               `yaml:"privacy"`
	Ingest    IngestConfig                `yaml:"ingest"`
	Redis     rediscache.Config           `yaml:"redis"`
	Qdrant    qdrant.Config               `yaml:"qdrant"`
	OTel      observability.TracingConfig `yaml:"otel"`
	Metrics   MetricsConfig               `yaml:"metrics"`
}

func defaultConfig() Config {
	return Config{
		Env: "development",
		HTTP: httpx.ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxRequestBytes:   1 << 20,
		},
		Postgres: db.PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "questlog",
			SSLMode: "disable",
		},
		LLM: oaihttp.Config{
			BaseURL:    "https://api.openai.com",
			EmbedModel: "text-embedding-3-small",
			ChatModel:  "gpt-4o-mini",
			Timeout:    60 * time.Second,
		},
		Retrieval: RetrievalConfig{
			Backend:          RetrievalBackendStore,
			SimilarityFloor:  0.2,
			MinMatchCount:    12,
			FallbackLogLimit: 20,
			DefaultTopK:      8,
		},
		Chat: ChatConfig{
			MaxQueryChars: 2000,
			Timezone:      "UTC",
		},
		Privacy: PrivacyConfig{PrivateMode: true},
		Ingest:  IngestConfig{Concurrency: 4, BatchSize: 64},
		Redis:   rediscache.Config{Prefix: "ql", TTL: 24 * time.Hour},
		OTel:    observability.TracingConfig{ServiceName: "questlog", SampleRatio: 1},
	}
}

// LoadConfig builds the config from defaults, then the YAML file named by
// QUESTLOG_CONFIG (or ./config/config.yaml when present), then the environment.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	path := strings.TrimSpace(os.Getenv("QUESTLOG_CONFIG"))
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.ReadHeaderTimeout = envutil.Duration("HTTP_READ_HEADER_TIMEOUT", cfg.HTTP.ReadHeaderTimeout)
	cfg.HTTP.ShutdownTimeout = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)

	cfg.Auth.JWTSecret = envutil.String("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Audience = envutil.String("JWT_AUDIENCE", cfg.Auth.Audience)
	cfg.CORS.AllowedOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.Postgres.DSN = envutil.String("DATABASE_URL", cfg.Postgres.DSN)
	cfg.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = envutil.String("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Postgres.Name)
	cfg.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Postgres.SSLMode)

	cfg.LLM.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = envutil.String("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.EmbedModel = envutil.String("OPENAI_EMBED_MODEL", cfg.LLM.EmbedModel)
	cfg.LLM.ChatModel = envutil.String("OPENAI_CHAT_MODEL", cfg.LLM.ChatModel)
	cfg.LLM.Timeout = envutil.Duration("OPENAI_TIMEOUT", cfg.LLM.Timeout)

	cfg.Retrieval.Backend = RetrievalBackend(envutil.String("RETRIEVAL_BACKEND", string(cfg.Retrieval.Backend)))
	cfg.Retrieval.SimilarityFloor = envutil.Float("RETRIEVAL_SIMILARITY_FLOOR", cfg.Retrieval.SimilarityFloor)
	cfg.Chat.MaxQueryChars = envutil.Int("CHAT_MAX_QUERY_CHARS", cfg.Chat.MaxQueryChars)
	cfg.Chat.Timezone = envutil.String("CHAT_TIMEZONE", cfg.Chat.Timezone)

	cfg.Privacy.PrivateMode = envutil.Bool("PRIVATE_MODE", cfg.Privacy.PrivateMode)
	cfg.Privacy.EnableExternalEmbeddings = envutil.Bool("ENABLE_EXTERNAL_EMBEDDINGS", cfg.Privacy.EnableExternalEmbeddings)

	cfg.Ingest.Concurrency = envutil.Int("INGEST_CONCURRENCY", cfg.Ingest.Concurrency)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.TTL = envutil.Duration("EMBEDDING_CACHE_TTL", cfg.Redis.TTL)

	cfg.Qdrant.URL = envutil.String("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.Collection = envutil.String("QDRANT_COLLECTION", cfg.Qdrant.Collection)
	cfg.Qdrant.VectorDim = envutil.Int("QDRANT_VECTOR_DIM", cfg.Qdrant.VectorDim)
	cfg.Qdrant.APIKey = envutil.String("QDRANT_API_KEY", cfg.Qdrant.APIKey)

	cfg.OTel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.OTel.Enabled)
	cfg.OTel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTel.Endpoint)
	cfg.OTel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.OTel.ServiceName)
	if cfg.OTel.Environment == "" {
		cfg.OTel.Environment = cfg.Env
	}

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = envutil.String("METRICS_ADDR", cfg.Metrics.Addr)
}

func (c Config) Validate() error {
	var errs []error
	if _, err := resolveRetrievalBackend(c.Retrieval.Backend, c.Qdrant); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.LoadLocation(c.Chat.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("chat.timezone: %w", err))
	}
	if c.AIEnabled() && strings.TrimSpace(c.LLM.BaseURL) == "" {
		errs = append(errs, errors.New("llm.base_url is required unless privacy.private_mode is set"))
	}
	if c.Retrieval.SimilarityFloor != 0 && c.Retrieval.SimilarityFloor < steps.MinSimilarityFloor {
		errs = append(errs, fmt.Errorf("retrieval.similarity_floor must be at least %.1f", steps.MinSimilarityFloor))
	}
	if c.Chat.MaxQueryChars < 0 {
		errs = append(errs, errors.New("chat.max_query_chars must not be negative"))
	}
	return errors.Join(errs...)
}

// AIEnabled reports whether embeddings and completions may be called at all.
func (c Config) AIEnabled() bool { return !c.Privacy.PrivateMode }

// IngestEnabled additionally requires the explicit embeddings opt-in.
func (c Config) IngestEnabled() bool {
	return c.AIEnabled() && c.Privacy.EnableExternalEmbeddings
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Chat.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) ChatPipelineConfig() steps.Config {
	return steps.Config{
		SimilarityFloor:  c.Retrieval.SimilarityFloor,
		MinMatchCount:    c.Retrieval.MinMatchCount,
		FallbackLogLimit: c.Retrieval.FallbackLogLimit,
		DefaultTopK:      c.Retrieval.DefaultTopK,
		Location:         c.Location(),
	}
}

func (c Config) IngestPipelineConfig() ingest.Config {
	return ingest.Config{
		Enabled:     c.IngestEnabled(),
		Concurrency: c.Ingest.Concurrency,
		BatchSize:   c.Ingest.BatchSize,
	}
}
