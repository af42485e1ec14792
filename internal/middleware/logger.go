package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// quietRoutes are polled by infrastructure; successful hits log at debug.
var quietRoutes = map[string]bool{
	"/api/healthz": true,
	"/metrics":     true,
}

// Logger writes one access line per request through the request-scoped logger, so the
// line shares its request_id with whatever the handlers logged.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		reqLog := LoggerFrom(c, log)
		status := c.Writer.Status()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = reqLog.Error()
		case status >= 400:
			event = reqLog.Warn()
		case quietRoutes[c.FullPath()]:
			event = reqLog.Debug()
		default:
			event = reqLog.Info()
		}

		if s, ok := SessionFrom(c); ok {
			event = event.Str("session", s.ID)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			event = event.Strs("errors", errs.Errors())
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}
