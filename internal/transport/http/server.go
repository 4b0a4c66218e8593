package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/agentroom-server/internal/config"
	"github.com/vovakirdan/agentroom-server/internal/core"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server: health, metrics and the room endpoint.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, cfg.Room, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter serves the room endpoint from a plain ServeMux and everything else
// through gin. gin's writer refuses to hijack once the upgrade response is
// flushed, so WebSocket requests never pass through it.
func NewRouter(hub *core.Hub, opts config.RoomConfig, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), MetricsMiddleware())

	router.GET("/health", healthHandler(hub))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mux := stdhttp.NewServeMux()
	mux.Handle("GET /api/chat/{room}", RequireWebSocketUpgrade(NewWSHandler(hub, opts, logger)))
	mux.Handle("/", router)
	return mux
}

func healthHandler(hub *core.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{
			"status": "ok",
			"rooms":  hub.Rooms(),
		})
	}
}
