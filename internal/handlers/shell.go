package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/service"
)

func (h HandlerSet) Shell(c *gin.Context) {
	h.respondShell(c)
}

func (h HandlerSet) respondShell(c *gin.Context) {
	view, err := current(c).Shell.View(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

type navigateRequest struct {
	Page string `json:"page" binding:"required"`
}

func (h HandlerSet) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	page, err := service.ParsePage(req.Page)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	current(c).Shell.Navigate(page)
	h.respondShell(c)
}

type profileRequest struct {
	Name string `json:"name"`
}

func (h HandlerSet) SaveProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	if err := current(c).Shell.SaveProfile(c.Request.Context(), req.Name); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.respondShell(c)
}
