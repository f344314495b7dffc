package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/playmatatu/arcade/internal/api"
	"github.com/playmatatu/arcade/internal/auth"
	"github.com/playmatatu/arcade/internal/config"
	"github.com/playmatatu/arcade/internal/database"
	"github.com/playmatatu/arcade/internal/game"
	"github.com/playmatatu/arcade/internal/logger"
	"github.com/playmatatu/arcade/internal/migrations"
	"github.com/playmatatu/arcade/internal/redis"
	"github.com/playmatatu/arcade/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	if _, err := game.NewWithOptions(cfg.Court(), cfg.GameOptions()); err != nil {
		log.Fatal("invalid game configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres is optional; without it session records are not kept.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Info("running DB migrations on startup")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
				log.Fatal("failed to run migrations", zap.Error(err))
			}
		}
	} else {
		log.Info("DATABASE_URL not set; session records disabled")
	}

	// Redis is optional; without it events go straight to local websockets.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	} else {
		log.Info("REDIS_URL not set; session registry disabled")
	}

	mgr := game.NewSessionManager(ctx, db, rdb, game.ManagerConfig{
		Court:       cfg.Court(),
		Options:     cfg.GameOptions(),
		FrameRate:   cfg.FrameRate,
		QueueSize:   cfg.InputQueueSize,
		IdleTimeout: cfg.SessionIdleTimeout(),
		Logger:      log,
	})

	hub := ws.NewHub(log)
	go hub.Run(ctx)
	mgr.SetSink(hub)
	ws.StartEventSubscriber(ctx, rdb, hub)
	mgr.StartExpiryChecker(ctx, cfg.ExpiryCheckInterval())

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.PlayerTokenTTL())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if err := api.SetupRoutes(router, mgr, hub, issuer, cfg); err != nil {
		log.Fatal("failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("starting arcade server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	mgr.Shutdown()
}
