package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	handlers "bookshelf/internal/http/handler"
	"bookshelf/internal/http/middleware"
	"bookshelf/internal/otel"
	"bookshelf/internal/repository/mysql"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC
	ctx := context.Background()

	// Tracing: SQL spans flow through the otelsql driver wrapper
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	// The repository opens a fresh MySQL connection per operation; the
	// constructor connects once to make sure the books table exists.
	conn := database.EnvConnector{}
	bookRepo, err := mysql.NewBookMySQL(ctx, conn, loc)
	if err != nil {
		log.Fatalf("failed to initialize book repository: %v", err)
	}

	// S3-compatible object storage for cover images (MinIO-supported)
	coverStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	bookSvc := service.NewBookService(coverStore, bookRepo, cfg.PageSize)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, conn, bookSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
