package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericrosedev/findavote/internal/service"
)

const imageField = "image"

func (h HandlerSet) Post(c *gin.Context) {
	view, err := current(c).Posts.View(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h HandlerSet) BeginEdit(c *gin.Context) {
	if err := current(c).Posts.BeginEdit(c.Request.Context()); err != nil {
		h.fail(c, err, nil)
		return
	}
	h.Post(c)
}

func (h HandlerSet) CancelEdit(c *gin.Context) {
	current(c).Posts.CancelEdit()
	h.Post(c)
}

type postResult struct {
	Notice service.Notice   `json:"notice"`
	View   service.PostView `json:"view"`
}

// SubmitPost takes a multipart form with title, description and an optional image.
func (h HandlerSet) SubmitPost(c *gin.Context) {
	form := service.PostForm{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	file, header, err := c.Request.FormFile(imageField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		h.fail(c, badRequest(err), nil)
		return
	default:
		defer file.Close()
		img, err := service.ReadMultipartImage(file, header)
		if err != nil {
			h.fail(c, err, nil)
			return
		}
		form.Image = &img
	}

	s := current(c)
	notice, err := s.Posts.Submit(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err, &notice)
		return
	}
	h.respondPost(c, notice)
}

func (h HandlerSet) DeletePost(c *gin.Context) {
	s := current(c)
	notice, err := s.Posts.Delete(c.Request.Context(), confirmed(c))
	if err != nil {
		h.fail(c, err, &notice)
		return
	}
	h.respondPost(c, notice)
}

func (h HandlerSet) respondPost(c *gin.Context, notice service.Notice) {
	view, err := current(c).Posts.View(c.Request.Context())
	if err != nil {
		// the mutation succeeded; a failed re-read still reports it
		h.logger(c).Warn().Err(err).Msg("post view after mutation failed")
		c.JSON(http.StatusOK, postResult{Notice: notice})
		return
	}
	c.JSON(http.StatusOK, postResult{Notice: notice, View: view})
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}
