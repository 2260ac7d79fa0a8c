package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/centralrock/route-tracker/internal/config"
	"github.com/centralrock/route-tracker/internal/database"
	"github.com/centralrock/route-tracker/internal/handlers"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/centralrock/route-tracker/internal/routes"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/centralrock/route-tracker/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	setupLogging(cfg)
	validateEnvironment(cfg)

	if err := database.Connect(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	var sessionStore fiber.Storage
	if cfg.RedisAddr != "" {
		store, err := storage.NewRedisStorage(storage.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		sessionStore = store
		slog.Info("Sessions stored in Redis", "addr", cfg.RedisAddr)
	}
	middleware.InitSessions(sessionStore, cfg.SessionTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	push := services.NewPushService(ctx, database.DB, cfg.FCMServiceAccount)
	handlers.Init(database.DB, cfg, push)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(cfg),
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.Setup(app, cfg)

	go func() {
		slog.Info("Route tracker starting", "port", cfg.Port, "env", cfg.AppEnv, "push", push.Enabled())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

// validateEnvironment refuses to run production with development secrets.
func validateEnvironment(cfg *config.Config) {
	if !cfg.IsProduction() {
		return
	}
	if len(cfg.JWTSecret) < 32 || cfg.JWTSecret == "your-secret-key-change-in-production" {
		slog.Error("JWT_SECRET must be set to at least 32 characters in production")
		os.Exit(1)
	}
	if cfg.CORSOrigins == "" || cfg.CORSOrigins == "http://localhost:3000" {
		slog.Warn("CORS_ORIGINS not properly configured for production")
	}
}

func errorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			slog.Error("unhandled error", "path", c.Path(), "error", err)
		}

		if cfg.IsProduction() && code == fiber.StatusInternalServerError {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
