package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"classnotify/internal/apiclient"
	"classnotify/internal/config"
	"classnotify/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dedup := worker.NewRedisDedup(cfg)
	defer dedup.Close()

	api := apiclient.New(cfg.APIBaseURL, cfg.WorkerKey)

	var push worker.PushSender
	if config.FirebaseConfigured() {
		firebaseConfig, err := config.LoadFirebaseConfig()
		if err != nil {
			log.Fatalf("Failed to load Firebase config: %v", err)
		}
		client, err := config.NewMessagingClient(ctx, firebaseConfig)
		if err != nil {
			log.Fatalf("Failed to initialize FCM client: %v", err)
		}
		push = client
	} else {
		slog.Info("FCM not configured, push channel disabled")
	}

	w := worker.NewWorker(cfg, dedup, api, push)
	if err := w.Start(ctx); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
