package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/cache"
	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
	"github.com/xuxiaoleilancy/ai-codehub/internal/credstore"
	"github.com/xuxiaoleilancy/ai-codehub/internal/handlers"
	"github.com/xuxiaoleilancy/ai-codehub/internal/ids"
	"github.com/xuxiaoleilancy/ai-codehub/internal/jobs"
	"github.com/xuxiaoleilancy/ai-codehub/internal/log"
	"github.com/xuxiaoleilancy/ai-codehub/internal/server"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
	"github.com/xuxiaoleilancy/ai-codehub/internal/views"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level)

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var provider credstore.Provider
	if redisClient != nil {
		provider = credstore.NewRedis(redisClient, cfg.CredStore.Prefix, cfg.CredStore.IdleTTL)
	} else {
		logger.Warn().Msg("redis disabled, browser sessions are kept in memory")
		provider = credstore.NewMemory()
	}

	if cfg.Session.CookieSecret == "" {
		cfg.Session.CookieSecret = ids.New()
		logger.Warn().Msg("session.cookiesecret unset, using a random secret; cookies will not survive a restart")
	}

	renderer, err := views.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}

	backend := apiclient.New(cfg.Backend, logger)
	refresher := session.NewBackendRefresher(backend, cfg.Session.DefaultTTL)
	sessions := session.NewFactory(provider, refresher, cfg.Session.ExpiryThreshold, logger)
	sessions.SetRefreshTimeout(cfg.Backend.Timeout)

	handlerSet := handlers.NewHandlerSet(logger, backend, redisClient, renderer, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, sessions, handlerSet)

	scheduler := jobs.NewScheduler(sessions, cfg.Session, logger)
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
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
