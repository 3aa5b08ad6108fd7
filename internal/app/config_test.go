package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps LoadConfig away from the developer's own environment.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"QUESTLOG_CONFIG", "LOG_MODE", "HTTP_ADDR", "PORT", "JWT_SECRET", "CORS_ALLOWED_ORIGINS",
		"PRIVATE_MODE", "ENABLE_EXTERNAL_EMBEDDINGS", "RETRIEVAL_BACKEND", "QDRANT_URL",
		"QDRANT_COLLECTION", "QDRANT_VECTOR_DIM", "CHAT_TIMEZONE", "OPENAI_BASE_URL", "REDIS_ADDR",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Privacy.PrivateMode)
	assert.False(t, cfg.Privacy.EnableExternalEmbeddings)
	assert.False(t, cfg.AIEnabled())
	assert.False(t, cfg.IngestEnabled())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 2000, cfg.Chat.MaxQueryChars)
	assert.Equal(t, RetrievalBackendStore, cfg.Retrieval.Backend)

	pc := cfg.ChatPipelineConfig()
	assert.Equal(t, 0.2, pc.SimilarityFloor)
	assert.Equal(t, 12, pc.MinMatchCount)
	assert.Equal(t, 20, pc.FallbackLogLimit)
	assert.Equal(t, 8, pc.DefaultTopK)
	assert.Equal(t, time.UTC, pc.Location)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "questlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
http:
  addr: ":9000"
  shutdown_timeout: 3s
cors:
  allowed_origins: ["https://app.example.com"]
privacy:
  private_mode: false
  enable_external_embeddings: true
llm:
  base_url: http://llm:8000
  timeout: 20s
chat:
  timezone: Europe/Berlin
redis:
  ttl: 1h
`), 0o600))
	t.Setenv("QUESTLOG_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.AIEnabled())
	assert.True(t, cfg.IngestEnabled())
	assert.True(t, cfg.IngestPipelineConfig().Enabled)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ChatModel)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoadConfigEnvDisablesAI(t *testing.T) {
	isolate(t)
	t.Setenv("PRIVATE_MODE", "true")
	t.Setenv("ENABLE_EXTERNAL_EMBEDDINGS", "true")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IngestEnabled())
}

func TestConfigValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Chat.Timezone = "Mars/Olympus"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Retrieval.Backend = "pinecone"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Retrieval.SimilarityFloor = 0.05
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Privacy.PrivateMode = false
	bad.LLM.BaseURL = ""
	assert.Error(t, bad.Validate())

	ok := cfg
	ok.LLM.BaseURL = ""
	assert.NoError(t, ok.Validate(), "private mode never calls the llm")
}
