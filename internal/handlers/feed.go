package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/service"
)

func (h HandlerSet) Feed(c *gin.Context) {
	view, err := current(c).Feed.View(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

type feedModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

func (h HandlerSet) SetFeedMode(c *gin.Context) {
	var req feedModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	mode, err := service.ParseFeedMode(req.Mode)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	current(c).Feed.SetMode(mode)
	h.Feed(c)
}

type selectRequest struct {
	ID *uint64 `json:"id" binding:"required"`
}

func (h HandlerSet) SelectPost(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	current(c).Feed.Select(*req.ID)
	h.Feed(c)
}

func (h HandlerSet) CloseDetail(c *gin.Context) {
	current(c).Feed.CloseDetail()
	h.Feed(c)
}
