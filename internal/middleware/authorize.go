package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/apperr"
)

// RequireAuthenticated rejects anonymous sessions. Must run after Session.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apperr.KindInternal})
			return
		}
		if s.Identity().IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   apperr.KindAuthorization,
				"message": "Authentication required. Please log in to create or edit posts.",
			})
			return
		}
		c.Next()
	}
}
