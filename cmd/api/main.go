package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tritium/internal/config"
	"tritium/internal/database"
	"tritium/internal/logger"
	"tritium/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		bootLog := logger.New("development")
		bootLog.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("production")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.AppEnv)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := server.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("open file store")
	}
	courseCache, closeCache := server.OpenCache(ctx, cfg, log)
	defer func() { _ = closeCache() }()

	opts := server.Options{
		DB:             db,
		Store:          store,
		Cache:          courseCache,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTTTL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		CourseCacheTTL: cfg.CourseCacheTTL,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Log:            log,
	}
	if cfg.StorageDriver == config.StorageLocal {
		opts.StaticDir = cfg.ContentDir
		opts.StaticURLBase = cfg.StaticURLBase
	}
	app := server.New(opts)

	sweepDone := app.Uploads.ScheduleSweep(ctx, cfg.OrphanSweepInterval, cfg.OrphanTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads of large videos need a generous body timeout.
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	<-sweepDone

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
