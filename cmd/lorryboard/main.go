package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lorryboard/internal/backend"
	"lorryboard/internal/config"
	"lorryboard/internal/gemini"
	apphttp "lorryboard/internal/http"
	applog "lorryboard/internal/log"
	"lorryboard/internal/nlq"
	"lorryboard/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

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

	reports := services.NewReportService(store, cfg.Clock())
	router := nlq.NewRouter(reports)

	// Gemini fronts the router when an API key is configured; the router
	// remains the fallback either way.
	var answerer apphttp.Answerer = router
	if cfg.GeminiEnabled() {
		assistant, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, router)
		if err != nil {
			logger.Warn("Failed to initialize Gemini, using rule-based answers only", "error", err)
		} else {
			answerer = assistant
			logger.Info("Gemini assistant enabled", "model", cfg.GeminiModel)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, reports, answerer)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting lorryboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"reference_now", cfg.ReferenceNow)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
