package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
)

const panicMessage = "Something went wrong. Please try again."

// Recovery turns a handler panic into the internal error body every other failure uses.
// The stack goes to the request logger only; the client never sees it.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			reqLog := LoggerFrom(c, log)
			event := reqLog.Error().
				Interface("panic", r).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Bytes("stack", debug.Stack())
			if s, ok := SessionFrom(c); ok {
				event = event.Str("session", s.ID)
			}
			event.Msg("handler panicked")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   apperr.KindInternal,
				"message": panicMessage,
			})
		}()
		c.Next()
	}
}
