package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

// Metrics is a small Prometheus-text registry. A nil *Metrics is valid and
// records nothing, so call sites never need to check whether metrics are on.
type Metrics struct {
	apiRequests     *CounterVec
	apiLatency      *HistogramVec
	apiInflight     *Gauge
	chatAnswers     *CounterVec
	upstreamCalls   *CounterVec
	upstreamLatency *HistogramVec
	ingestChunks    *CounterVec
	embedCache      *CounterVec
	pgStats         *GaugeVec
	redisUp         *Gauge
	redisPing       *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide registry, or nil when metrics are off.
func Current() *Metrics {
	return instance
}

// Init installs the process-wide registry. It returns nil when disabled.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() { instance = New() })
	return instance
}

func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ql_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("ql_api_request_duration_seconds", "API request latency by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}),
		apiInflight:   NewGauge("ql_api_inflight_requests", "In-flight API requests."),
		chatAnswers:   NewCounterVec("ql_chat_answers_total", "Chat answers by intent and mode.", []string{"intent", "mode"}),
		upstreamCalls: NewCounterVec("ql_upstream_calls_total", "Embedding/completion/vector calls by op and outcome.", []string{"op", "status"}),
		upstreamLatency: NewHistogramVec("ql_upstream_call_duration_seconds", "Upstream call latency by op.",
			[]string{"op"}, []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}),
		ingestChunks: NewCounterVec("ql_ingest_chunks_total", "Chunks written by the ingest job.", []string{"status"}),
		embedCache:   NewCounterVec("ql_embedding_cache_total", "Query embedding cache lookups.", []string{"result"}),
		pgStats:      NewGaugeVec("ql_postgres_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:      NewGauge("ql_redis_up", "1 when the last redis ping succeeded."),
		redisPing:    NewGauge("ql_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.chatAnswers, m.upstreamCalls, m.upstreamLatency,
		m.ingestChunks, m.embedCache,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.Inc(method, route, code)
	m.apiLatency.Observe(dur.Seconds(), method, route, code)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncChatAnswer(intent, mode string) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.chatAnswers.Inc(intent, mode)
}

// ObserveUpstream records one call to the embedding, completion or vector
// service.
func (m *Metrics) ObserveUpstream(op string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, context.Canceled):
		status = "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	m.upstreamCalls.Inc(op, status)
	m.upstreamLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) AddIngestedChunks(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestChunks.Add(float64(n), status)
}

func (m *Metrics) IncEmbeddingCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.embedCache.Inc("hit")
		return
	}
	m.embedCache.Inc("miss")
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	go tick(ctx, interval, func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Warn("metrics: database stats unavailable", "error", err)
			return
		}
		stats := sqlDB.Stats()
		m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
		m.pgStats.Set(float64(stats.InUse), "in_use")
		m.pgStats.Set(float64(stats.Idle), "idle")
		m.pgStats.Set(float64(stats.WaitCount), "wait_count")
		m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	go tick(ctx, interval, func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			log.Warn("metrics: redis ping failed", "error", err)
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func tick(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
