package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/questlog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/questlog-backend/internal/http/middleware"
	"github.com/yungbote/questlog-backend/internal/observability"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	Metrics         *observability.Metrics
	ServiceName     string
	AllowedOrigins  []string
	MaxRequestBytes int64

	AuthMiddleware *httpMW.AuthMiddleware

	ChatHandler   *httpH.ChatHandler
	IngestHandler *httpH.IngestHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIDs(), httpMW.AccessLog(cfg.Log, cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// The chat endpoint is served both at the root and under /api.
	for _, prefix := range []string{"/", "/api"} {
		g := r.Group(prefix, httpMW.CORS(cfg.AllowedOrigins), httpMW.BodyLimit(cfg.MaxRequestBytes))
		g.OPTIONS("/chat", noContent)
		g.OPTIONS("/ingest", noContent)

		protected := g.Group("/")
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.ChatHandler != nil {
			protected.POST("/chat", cfg.ChatHandler.Ask)
		}
		if cfg.IngestHandler != nil {
			protected.POST("/ingest", cfg.IngestHandler.Run)
		}
	}

	return r
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
