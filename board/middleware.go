package board

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-Id"
	loggerKey       = "logger"
)

// RequestID tags every request with a unique id and stores a child logger
// carrying it on the gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := log.With().Str("request_id", id).Logger()
		c.Set(loggerKey, &logger)

		c.Next()
	}
}

// loggerFrom returns the request-scoped logger, falling back to the global
// one.
func loggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*zerolog.Logger); ok {
			return logger
		}
	}

	return &log.Logger
}

// RequestLogger emits one event per handled request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		loggerFrom(c).Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	}
}
