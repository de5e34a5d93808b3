package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"voxgate/internal/correlation"
	"voxgate/internal/gateway"
	"voxgate/internal/logging"
	"voxgate/internal/metrics"
	"voxgate/internal/utils"
)

// corsMiddleware adds CORS headers for browser clients
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		if allowAll {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[origin]; ok && origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+correlation.HeaderName)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		h.Set("Access-Control-Expose-Headers", correlation.HeaderName)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// recoveryMiddleware turns a panic into a 500 failure body without a stack trace
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logging.NewLogger(c.Request.Context()).Errorf("Recovered from panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		utils.Error(c, http.StatusInternalServerError, string(gateway.KindProcessing), "Internal server error")
	})
}

// accessLogMiddleware logs and records every request once the chain has finished
func accessLogMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)

		if strings.HasPrefix(route, "/metrics") {
			return
		}
		log := logging.NewLogger(c.Request.Context()).
			WithField("method", c.Request.Method).
			WithField("path", c.Request.URL.Path).
			WithField("status", status).
			WithField("latency_ms", elapsed.Milliseconds())
		if status >= http.StatusInternalServerError {
			log.Errorf("request completed")
		} else {
			log.Infof("request completed")
		}
	}
}
