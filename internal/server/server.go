// Package server wires repositories, services and handlers into the HTTP
// router served by cmd/api.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"tritium/internal/cache"
	"tritium/internal/domain/admin"
	"tritium/internal/domain/auth"
	"tritium/internal/domain/category"
	"tritium/internal/domain/course"
	"tritium/internal/domain/lecture"
	"tritium/internal/domain/upload"
	"tritium/internal/middleware"
	"tritium/internal/pkg/jwt"
	"tritium/internal/storage"
)

type Options struct {
	DB             *gorm.DB
	Store          storage.FileStore
	Cache          cache.Cache
	JWTSecret      string
	JWTTTL         time.Duration
	MaxUploadBytes int64
	CourseCacheTTL time.Duration
	CORSOrigins    []string

	// StaticDir is served under StaticURLBase when files live on local disk.
	StaticDir     string
	StaticURLBase string

	Log zerolog.Logger
}

type App struct {
	Router     *gin.Engine
	Tokens     *jwt.Service
	Users      *auth.Service
	Uploads    *upload.Service
	Categories *category.Service
	Courses    *course.Service
	Lectures   *lecture.Service
}

// Migrate creates or updates every table the app uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.User{},
		&category.Category{},
		&course.Course{},
		&lecture.Lecture{},
		&upload.Upload{},
	)
}

func New(opts Options) *App {
	log := opts.Log
	db := opts.DB

	tokens := jwt.New(opts.JWTSecret, opts.JWTTTL)

	uploads := upload.NewService(upload.NewRepository(db), opts.Store, opts.MaxUploadBytes, log)
	users := auth.NewService(auth.NewUserRepository(db), tokens, uploads)
	categories := category.NewService(category.NewRepository(db))

	lectureRepo := lecture.NewRepository(db)
	courses := course.NewService(course.Deps{
		Repo:        course.NewRepository(db),
		Lectures:    lectureRepo,
		Categories:  categories,
		Instructors: users,
		Files:       uploads,
		Cache:       opts.Cache,
		CacheTTL:    opts.CourseCacheTTL,
	}, log)
	lectures := lecture.NewService(lectureRepo, courses, uploads, log)
	dashboard := admin.NewService(admin.Counters{
		Courses:    courses,
		Categories: categories,
		Lectures:   lectures,
		Users:      users,
		Uploads:    uploads,
	}, users, uploads, log)

	uploadHandler := upload.NewHandler(uploads, log)
	maxSize := uploads.MaxFileSize()

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.StaticDir != "" && opts.StaticURLBase != "" {
		r.Static(opts.StaticURLBase, opts.StaticDir)
	}

	api := r.Group("/api")
	auth.NewHandler(users, log).RegisterPublicRoutes(api)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.JWTAuth(tokens), middleware.AdminOnly())
	{
		upload.RegisterRoutes(adminGroup, uploadHandler)
		category.RegisterRoutes(adminGroup, category.NewHandler(categories, log))
		course.RegisterRoutes(adminGroup, course.NewHandler(courses, maxSize, log))
		lecture.RegisterRoutes(adminGroup, lecture.NewHandler(lectures, uploadHandler, maxSize, log))
		admin.NewHandler(dashboard, maxSize, log).RegisterRoutes(adminGroup)
	}

	return &App{
		Router:     r,
		Tokens:     tokens,
		Users:      users,
		Uploads:    uploads,
		Categories: categories,
		Courses:    courses,
		Lectures:   lectures,
	}
}
