package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tritium/internal/cache"
	"tritium/internal/config"
	"tritium/internal/storage"
)

// OpenStore returns the file store selected by STORAGE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	switch cfg.StorageDriver {
	case config.StorageS3:
		return storage.NewS3(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case config.StorageLocal:
		return storage.NewLocal(cfg.ContentDir, cfg.StaticURLBase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// OpenCache connects to redis when REDIS_ADDR is set and falls back to an
// in-process cache otherwise, or when redis does not answer.
func OpenCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Cache, func() error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), func() error { return nil }
	}
	r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := r.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory course cache")
		_ = r.Close()
		return cache.NewMemory(), func() error { return nil }
	}
	return r, r.Close
}
