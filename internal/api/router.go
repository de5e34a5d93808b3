package api

import (
	"github.com/gin-gonic/gin"

	"voxgate/internal/correlation"
	"voxgate/internal/gateway"
	"voxgate/internal/metrics"
)

// RouterConfig holds what the HTTP layer needs. Metrics may be nil.
type RouterConfig struct {
	Gateway        *gateway.Service
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter builds the engine with the standard middleware chain
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middlewareChain(cfg.Metrics, cfg.AllowedOrigins)...)

	RegisterRoutes(r, NewHandler(cfg.Gateway), cfg.Metrics)
	return r
}

// middlewareChain returns the middleware in order. Correlation tracking wraps
// everything else so recovered panics and CORS preflights still carry the id;
// the access log sits outside recovery so recovered 500s are logged and counted.
func middlewareChain(m *metrics.Metrics, allowedOrigins []string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		correlation.Middleware(),
		accessLogMiddleware(m),
		recoveryMiddleware(),
		corsMiddleware(allowedOrigins),
	}
}

func RegisterRoutes(r *gin.Engine, h *Handler, m *metrics.Metrics) {
	// Health check
	r.GET("/health", h.healthCheck)

	audio := r.Group("/api/audio")
	{
		audio.POST("/transcribe", h.transcribe)
		audio.GET("/health", h.healthCheck)
	}

	// Alias kept for clients of the bare backend path
	r.POST("/transcribe", h.transcribe)

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
}
