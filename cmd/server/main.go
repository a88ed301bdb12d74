package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"availability-engine/internal/app"
	"availability-engine/internal/config"
	"availability-engine/internal/external"
	"availability-engine/internal/lock"
	"availability-engine/internal/logger"
	"availability-engine/internal/server"
	"availability-engine/internal/storage/postgres"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to db", logger.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Error("failed to migrate db", logger.Err(err))
		os.Exit(1)
	}

	checks := []server.ReadyCheck{{Name: "postgres", Check: store.Ping}}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		rl, err := lock.NewRedisLock(ctx, cfg.RedisAddr)
		if err != nil {
			log.Error("failed to connect to redis", logger.Err(err))
			os.Exit(1)
		}
		defer rl.Close()
		locker = rl
		checks = append(checks, server.ReadyCheck{Name: "redis", Check: rl.Ping})
	} else {
		log.Warn("REDIS_ADDR not set, booking lock is in-process only")
	}

	appInstance := &app.App{
		Rules:     store,
		Bookings:  store,
		Resources: store,
		Products:  store,
		Locker:    locker,
		Log:       log,
		Options: app.Options{
			DefaultTimezone: cfg.Scheduling.DefaultTimezone,
			DedupSlots:      cfg.Scheduling.DedupSlots,
			LockTTL:         cfg.Scheduling.BookingLockTTL,
			LockWait:        cfg.Scheduling.BookingLockWait,
			ExternalTimeout: cfg.Scheduling.ExternalFetchTimeout,
		},
	}
	if oauth := external.NewGoogleOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL); oauth != nil {
		appInstance.Calendars = &external.GoogleConnector{OAuth: oauth, Store: store}
	} else {
		log.Info("google calendar not configured, external blockers disabled")
	}

	router := newRouter(cfg, log, appInstance, checks)

	if err := server.Run(ctx, log, cfg.HTTPServer, cfg.ServiceName, router); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
}

func newRouter(cfg *config.Config, log *slog.Logger, a *app.App, checks []server.ReadyCheck) *gin.Engine {
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), server.RequestID(), server.AccessLog(log))

	server.RegisterHealth(router, checks...)

	api := router.Group("/api")
	api.Use(app.AuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.StaticTokens))
	a.RegisterRoutes(api)

	return router
}
