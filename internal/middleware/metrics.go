package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/metrics"
)

// Metrics records every request, and the error kind of failed ones.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
		if last := c.Errors.Last(); last != nil {
			m.ObserveFailure(string(apperr.KindOf(last.Err)))
		}
	}
}
