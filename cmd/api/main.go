package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"classnotify/internal/auth"
	"classnotify/internal/classroom"
	"classnotify/internal/config"
	"classnotify/internal/db"
	"classnotify/internal/dispatch"
	"classnotify/internal/enrollment"
	"classnotify/internal/handlers"
	"classnotify/internal/migrations"
	"classnotify/internal/notification"
	"classnotify/internal/queue"
	"classnotify/internal/realtime"
	"classnotify/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := migrations.Up(migrations.Files); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Refuse to start without the broker rather than silently running
	// with no async delivery.
	queueClient, err := queue.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}
	defer queueClient.Close()

	auth.InitSecurity()

	hub := realtime.NewHub()
	authService := auth.NewService(database, cfg.JWTSecret)
	notificationStore := notification.NewStore(database)
	classroomStore := classroom.NewStore(database)
	resolver := enrollment.NewResolver(database)
	dispatcher := dispatch.NewDispatcher(resolver, notificationStore, hub, queueClient)

	h := handlers.New(authService, notificationStore, classroomStore, resolver, dispatcher, queueClient, hub, cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	api := e.Group("/api/v1")
	routes.SetupRoutes(api, h, cfg.JWTSecret, cfg.WorkerKey)

	go func() {
		addr := ":8080"
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		}
		if err := e.Start(addr); err != nil {
			slog.Info("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
