package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/config"
	"github.com/ericrosedev/findavote/internal/security"
	"github.com/ericrosedev/findavote/internal/session"
)

const sessionKey = "client_session"

// Session binds the request to the browser's client session, creating one when the
// cookie is missing, badly signed or names a session the hub cannot restore. The cookie
// is signed with cfg.CookieSecret when one is set.
func Session(hub *session.Hub, cfg config.SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.TokenTTL.Seconds())

	return func(c *gin.Context) {
		id := sessionCookie(c, cfg)

		s, err := hub.Open(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(err)
			kind := apperr.KindOf(err)
			c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{
				"error":   kind,
				"message": "Could not start a session. Please try again.",
			})
			return
		}

		if s.ID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			value := s.ID
			if cfg.CookieSecret != "" {
				value = security.SignValue(cfg.CookieSecret, s.ID)
			}
			c.SetCookie(cfg.CookieName, value, maxAge, "/", "", cfg.CookieSecure, true)
		}

		c.Set(sessionKey, s)
		c.Next()
	}
}

func sessionCookie(c *gin.Context, cfg config.SessionConfig) string {
	raw, err := c.Cookie(cfg.CookieName)
	if err != nil || raw == "" {
		return ""
	}
	if cfg.CookieSecret == "" {
		return raw
	}
	id, ok := security.VerifyValue(cfg.CookieSecret, raw)
	if !ok {
		return ""
	}
	return id
}

func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
