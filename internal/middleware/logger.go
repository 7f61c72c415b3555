package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logger writes one access line per request through the request-scoped
// logger bound by RequestID. Health checks are logged at debug level.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		reqLog := zerolog.Ctx(c.Request.Context())
		if reqLog.GetLevel() == zerolog.Disabled {
			reqLog = &log
		}

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = reqLog.Error()
		case status >= 400:
			event = reqLog.Warn()
		case c.FullPath() == "/healthz":
			event = reqLog.Debug()
		default:
			event = reqLog.Info()
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Str("client_id", c.GetString(clientIDKey)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
