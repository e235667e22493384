package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterConfig carries everything the HTTP router serves.
type RouterConfig struct {
	StaticDir string
	Transport http.Handler
	Health    *HealthHandler
}

// NewRouter builds the Gin engine: health check, WebSocket endpoint and the
// static chat client.
func NewRouter(cfg RouterConfig, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(CORSMiddleware())

	cfg.Health.RegisterRoutes(r)
	NewWebSocketHandler(cfg.Transport).RegisterRoutes(r)

	if cfg.StaticDir != "" {
		r.NoRoute(StaticFiles(cfg.StaticDir))
	}
	return r
}
