package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/identity"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"deviceId"`
}

// Login authenticates the session and answers with the refreshed shell.
func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}

	s := current(c)
	if _, err := s.Login(c.Request.Context(), identity.Credentials{
		Email:    req.Email,
		Password: req.Password,
		DeviceID: req.DeviceID,
	}); err != nil {
		h.fail(c, err, nil)
		return
	}

	h.logger(c).Info().Str("principal", s.Identity().Principal.String()).Msg("logged in")
	h.respondShell(c)
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := current(c).Logout(c.Request.Context()); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.respondShell(c)
}
