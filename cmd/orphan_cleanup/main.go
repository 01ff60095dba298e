// Command orphan_cleanup deletes uploaded course media that was never
// attached to a course. Run it from cron when the in-process sweep is off.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tritium/internal/config"
	"tritium/internal/database"
	"tritium/internal/domain/upload"
	"tritium/internal/logger"
	"tritium/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("production")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.AppEnv)

	olderThan := flag.Duration("older-than", cfg.OrphanTTL, "delete pending uploads older than this")
	timeout := flag.Duration("timeout", 10*time.Minute, "give up after this long")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := db.AutoMigrate(&upload.Upload{}); err != nil {
		log.Fatal().Err(err).Msg("migrate uploads")
	}

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open file store")
	}

	svc := upload.NewService(upload.NewRepository(db), store, cfg.MaxUploadBytes(), log)
	res, err := svc.SweepOrphans(ctx, *olderThan)
	if err != nil {
		log.Fatal().Err(err).Msg("orphan sweep failed")
	}

	log.Info().Int("scanned", res.Scanned).Int("deleted", res.Deleted).Int("failed", res.Failed).Msg("orphan cleanup completed")
	if res.Failed > 0 {
		os.Exit(1)
	}
}
