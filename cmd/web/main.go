package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ericrosedev/findavote/internal/backend"
	"github.com/ericrosedev/findavote/internal/cache"
	"github.com/ericrosedev/findavote/internal/config"
	"github.com/ericrosedev/findavote/internal/handlers"
	"github.com/ericrosedev/findavote/internal/identity"
	"github.com/ericrosedev/findavote/internal/jobs"
	"github.com/ericrosedev/findavote/internal/log"
	"github.com/ericrosedev/findavote/internal/media/imageprep"
	"github.com/ericrosedev/findavote/internal/metrics"
	"github.com/ericrosedev/findavote/internal/repository"
	"github.com/ericrosedev/findavote/internal/server"
	"github.com/ericrosedev/findavote/internal/service"
	"github.com/ericrosedev/findavote/internal/session"
	"github.com/ericrosedev/findavote/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var tokens session.TokenStore
	if redisClient != nil {
		tokens = repository.NewSessionRepository(redisClient)
	} else {
		logger.Warn().Msg("redis not configured, sessions will not survive a restart")
	}

	var (
		files  storage.FileStore
		pinger handlers.Pinger
	)
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		files, pinger = objectStore, objectStore
	} else {
		logger.Warn().Msg("object storage not configured, images are kept in memory")
		files = storage.NewMemoryStore(cfg.Storage.PublicBaseURL)
	}

	hub := session.NewHub(session.Deps{
		Backend:  backend.NewFactory(cfg.Backend.BaseURL, cfg.Backend.Timeout),
		Provider: identity.NewHTTPProvider(cfg.Identity.AuthURL, cfg.Identity.JWTSecret, cfg.Identity.Timeout),
		Uploads:  service.NewUploadService(imageprep.New(), files, logger),
		Tokens:   tokens,
		TokenTTL: cfg.Session.TokenTTL,
		Log:      logger,
	}, cfg.Session.IdleTTL)

	m := metrics.New()
	m.TrackSessions(hub.Len)

	handlerSet := handlers.NewHandlerSet(logger, cfg, hub, redisClient, pinger)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, m)

	scheduler := jobs.NewScheduler(hub, cfg.Session.SweepSpec, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
