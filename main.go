package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/dispatcher"
	"github.com/socialsync/instagram-sync-service/internal/enhancer"
	"github.com/socialsync/instagram-sync-service/internal/fetcher"
	"github.com/socialsync/instagram-sync-service/internal/ledger"
	"github.com/socialsync/instagram-sync-service/internal/publisher"
	"github.com/socialsync/instagram-sync-service/internal/queue"
	"github.com/socialsync/instagram-sync-service/internal/server"
	"github.com/socialsync/instagram-sync-service/internal/worker"
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func main() {
	logger := newLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize the dedup ledger
	store, err := ledger.NewLedger(cfg.Ledger)
	if err != nil {
		logger.Error("failed to initialize ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	// Initialize the work queue
	q, err := queue.NewSQSQueue(cfg.Queue)
	if err != nil {
		logger.Error("failed to initialize queue", slog.Any("error", err))
		os.Exit(1)
	}

	// Wire the pipeline: every client is constructed here and injected
	instagramFetcher := fetcher.NewFetcher(cfg.Instagram)
	contentEnhancer := enhancer.NewEnhancer(cfg.Enhancer, openai.NewClient(cfg.Enhancer.APIKey), logger)
	strapiPublisher := publisher.NewPublisher(cfg.Strapi, logger)

	syncDispatcher := dispatcher.NewDispatcher(instagramFetcher, q, logger)
	pipelineWorker := worker.NewWorker(store, contentEnhancer, strapiPublisher, logger)
	consumer := worker.NewConsumer(q, pipelineWorker, cfg.Consumer, logger)

	httpServer := server.NewServer(cfg.Server, syncDispatcher, store, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", slog.Int("port", cfg.Server.Port))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()

	// Start queue consumer
	go func() {
		logger.Info("starting queue consumer")
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer error", slog.Any("error", err))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info("shutdown signal received, gracefully shutting down")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	cancel() // Stop the consumer loop
	logger.Info("shutdown complete")
}
