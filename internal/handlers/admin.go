package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/models"
	"github.com/ericrosedev/findavote/internal/service"
)

func (h HandlerSet) Admin(c *gin.Context) {
	view, err := current(c).Moderation.View(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

type tabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

func (h HandlerSet) SetAdminTab(c *gin.Context) {
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	tab, err := service.ParseModerationTab(req.Tab)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	current(c).Moderation.SetTab(tab)
	h.Admin(c)
}

type approvalRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h HandlerSet) SetApproval(c *gin.Context) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	status, err := models.ParseApprovalStatus(req.Status)
	if err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}

	user := models.Principal(c.Param("principal"))
	if err := current(c).Moderation.SetApproval(c.Request.Context(), user, status); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.Admin(c)
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) AssignRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	role, err := models.ParseUserRole(req.Role)
	if err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}

	user := models.Principal(c.Param("principal"))
	if err := current(c).Moderation.AssignRole(c.Request.Context(), user, role); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.Admin(c)
}

func (h HandlerSet) RemovePost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, badRequest(err), nil)
		return
	}
	if err := current(c).Moderation.RemovePost(c.Request.Context(), id, confirmed(c)); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.Admin(c)
}
