package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lorryboard/internal/amqp"
	"lorryboard/internal/backend"
	"lorryboard/internal/config"
	applog "lorryboard/internal/log"
	"lorryboard/internal/services"
	"lorryboard/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting lorryboard-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := backend.New(backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		SQLiteDBPath:  cfg.SQLiteDBPath,
		DataDirectory: cfg.DataDir,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ingestWorker := worker.NewIngestWorker(services.NewIngestService(store, store))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := amqpClient.ConsumeDeliveryRecorded(ctx, func(msg *amqp.DeliveryRecordedMessage) error {
			return ingestWorker.HandleDeliveryRecorded(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	// Give the in-flight message a moment to settle before closing the
	// connection under it.
	time.Sleep(500 * time.Millisecond)
	logger.Info("Worker stopped gracefully")
}
