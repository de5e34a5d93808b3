// Package correlation assigns a per-request identifier and threads it through
// the request context, the response headers, and error payloads.
package correlation

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderName is read from inbound requests and written to every response
	HeaderName = "X-Correlation-ID"
	// LogField is the structured log key carrying the id
	LogField = "correlation_id"
)

type contextKey struct{}

// NewID generates fresh ids. Tests may replace it.
var NewID = uuid.NewString

// AssignOrPropagate reuses a non-empty inbound id verbatim, otherwise generates one
func AssignOrPropagate(inbound string) string {
	if strings.TrimSpace(inbound) != "" {
		return inbound
	}
	return NewID()
}

// WithID returns a copy of ctx carrying id
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the id stored in ctx, or "" when the request is not tracked
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// FromGin returns the id of the request handled by c
func FromGin(c *gin.Context) string {
	if id := FromContext(c.Request.Context()); id != "" {
		return id
	}
	return c.Writer.Header().Get(HeaderName)
}

// Middleware tracks the request between assignment and the deferred restore.
// The header is written before the handler chain runs so every exit path carries it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := AssignOrPropagate(c.GetHeader(HeaderName))
		c.Writer.Header().Set(HeaderName, id)

		original := c.Request
		c.Request = original.WithContext(WithID(original.Context(), id))
		defer func() {
			c.Request = original
		}()

		c.Next()
	}
}
