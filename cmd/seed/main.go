// Command seed creates the first admin account and the default course
// categories. Existing rows are left alone, so it is safe to run twice.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"tritium/internal/config"
	"tritium/internal/database"
	"tritium/internal/domain/auth"
	"tritium/internal/domain/category"
	"tritium/internal/logger"
	"tritium/internal/server"
)

var defaultCategories = []string{
	"Web Development",
	"Mobile Development",
	"Data Science",
	"DevOps",
	"Design",
	"Business",
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("production")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.AppEnv)

	email := flag.String("email", envOr("SEED_ADMIN_EMAIL", "admin@tritium.local"), "admin email")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password")
	name := flag.String("name", "Administrator", "admin display name")
	flag.Parse()

	if *password == "" {
		log.Fatal().Msg("admin password is required (-password or SEED_ADMIN_PASSWORD)")
	}

	ctx := context.Background()
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := server.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	users := auth.NewService(auth.NewUserRepository(db), nil, nil)
	admin, err := users.CreateUser(ctx, *name, *email, *password, auth.RoleAdmin)
	switch {
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		log.Info().Str("email", *email).Msg("admin already exists")
	case err != nil:
		log.Fatal().Err(err).Msg("create admin")
	default:
		log.Info().Str("id", admin.ID).Str("email", admin.Email).Msg("admin created")
	}

	categories := category.NewService(category.NewRepository(db))
	created := 0
	for _, c := range defaultCategories {
		_, err := categories.Create(ctx, category.CreateCategoryRequest{Name: c})
		switch {
		case errors.Is(err, category.ErrCategoryExists):
		case err != nil:
			log.Fatal().Err(err).Str("category", c).Msg("create category")
		default:
			created++
		}
	}
	log.Info().Int("created", created).Int("total", len(defaultCategories)).Msg("categories seeded")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
