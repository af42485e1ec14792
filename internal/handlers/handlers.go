package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/apperr"
	"github.com/ericrosedev/findavote/internal/config"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/middleware"
	"github.com/ericrosedev/findavote/internal/query"
	"github.com/ericrosedev/findavote/internal/service"
	"github.com/ericrosedev/findavote/internal/session"
)

// Pinger is any dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerSet struct {
	log   zerolog.Logger
	cfg   *config.AppConfig
	hub   *session.Hub
	cache *redis.Client
	store Pinger
}

// NewHandlerSet wires the HTTP surface. cache and store may be nil when Redis or
// object storage are not configured.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, hub *session.Hub, cache *redis.Client, store Pinger) HandlerSet {
	return HandlerSet{
		log:   log,
		cfg:   cfg,
		hub:   hub,
		cache: cache,
		store: store,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Session(h.hub, h.cfg.Session))
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)

		v1.GET("/shell", h.Shell)
		v1.POST("/shell/navigate", h.Navigate)
		v1.POST("/profile", middleware.RequireAuthenticated(), h.SaveProfile)

		feed := v1.Group("/feed")
		feed.GET("", h.Feed)
		feed.POST("/mode", h.SetFeedMode)
		feed.POST("/select", h.SelectPost)
		feed.POST("/close", h.CloseDetail)

		post := v1.Group("/post")
		post.GET("", h.Post)
		post.POST("", h.SubmitPost)
		post.DELETE("", h.DeletePost)
		post.POST("/edit", middleware.RequireAuthenticated(), h.BeginEdit)
		post.POST("/cancel", h.CancelEdit)

		admin := v1.Group("/admin")
		admin.GET("", h.Admin)
		admin.POST("/tab", h.SetAdminTab)
		admin.POST("/users/:principal/approval", h.SetApproval)
		admin.POST("/users/:principal/role", h.AssignRole)
		admin.DELETE("/posts/:id", h.RemovePost)
	}
}

type errorResponse struct {
	Error   apperr.Kind     `json:"error"`
	Message string          `json:"message"`
	Notice  *service.Notice `json:"notice,omitempty"`
}

func current(c *gin.Context) *session.Session {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		panic("handlers: route registered outside the session middleware")
	}
	return s
}

// fail writes the error body for err. notice is the page notice the failure left
// behind, if any.
func (h HandlerSet) fail(c *gin.Context, err error, notice *service.Notice) {
	_ = c.Error(err)

	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	switch {
	case errors.Is(err, query.ErrMutationPending), errors.Is(err, query.ErrStale):
		kind, status = apperr.KindConflict, http.StatusConflict
	case errors.Is(err, identity.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if kind == apperr.KindInternal {
		h.logger(c).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}

	msg := service.Message(err)
	if notice != nil && notice.Message != "" {
		msg = notice.Message
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: kind, Message: msg, Notice: notice})
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
}

func (h HandlerSet) logger(c *gin.Context) *zerolog.Logger {
	l := middleware.LoggerFrom(c, h.log)
	return &l
}
