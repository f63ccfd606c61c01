package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"grameen_connect/internal/auth"
	"grameen_connect/internal/config"
	"grameen_connect/internal/logger"
	"grameen_connect/internal/middleware"
	"grameen_connect/internal/realtime"
	"grameen_connect/internal/routes"
)

func main() {
	configFile := flag.String("c", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("could not load configuration")
	}

	// Initialize structured logging to file
	accessLog := logger.Setup(cfg.LogFile, cfg.LogLevel)
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			AttachStacktrace: true,
		}); err != nil {
			logrus.WithError(err).Warn("sentry disabled")
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Connect to the database
	db, err := config.InitDB(cfg.DB, cfg.Migrations)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var revoker auth.Revoker = auth.NoopRevoker{}
	if cfg.RedisURL != "" {
		redisRevoker, err := auth.NewRedisRevoker(ctx, cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisRevoker.Close()
		revoker = redisRevoker
		logrus.Info("token revocation list enabled")
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn, revoker)

	hub := realtime.NewHub(middleware.AllowedOrigins(cfg.FrontendURL))
	go hub.Run(ctx)

	r := routes.SetupRouter(routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Tokens:    tokens,
		Hub:       hub,
		AccessLog: accessLog,
		Sentry:    sentryEnabled,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
