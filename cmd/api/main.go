package main

import (
	"context"
	"log"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/boriskezikov/greenapp.client-provider/internal/config"
	"github.com/boriskezikov/greenapp.client-provider/internal/database"
	"github.com/boriskezikov/greenapp.client-provider/internal/database/migration"
	"github.com/boriskezikov/greenapp.client-provider/internal/event"
	handlers "github.com/boriskezikov/greenapp.client-provider/internal/http/handler"
	"github.com/boriskezikov/greenapp.client-provider/internal/http/middleware"
	"github.com/boriskezikov/greenapp.client-provider/internal/logger"
	"github.com/boriskezikov/greenapp.client-provider/internal/otel"
	"github.com/boriskezikov/greenapp.client-provider/internal/repository/postgres"
	"github.com/boriskezikov/greenapp.client-provider/internal/service"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// Tracing is optional; a failed exporter setup must not block startup.
	shutdownTracing, err := otel.Init(ctx, zlog)
	if err != nil {
		zlog.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(ctx)
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize the Redis event publisher
	publisher, err := event.NewRedisPublisher(cfg.Redis, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to event broker", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize repository and service
	clientRepo := postgres.NewClientPostgres(db)
	clientSvc := service.NewClientService(db, clientRepo, publisher, zlog)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// Structured request logs
	app.Use(middleware.Logger(zlog))
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		zlog.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, clientSvc)

	addr := ":" + cfg.Port
	zlog.Info("starting server", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
