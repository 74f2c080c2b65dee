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

	"github.com/tissuetrace/donor-audit/internal/async"
	"github.com/tissuetrace/donor-audit/internal/common"
	"github.com/tissuetrace/donor-audit/internal/export"
	"github.com/tissuetrace/donor-audit/internal/llm/openai"
	"github.com/tissuetrace/donor-audit/internal/pipeline"
	"github.com/tissuetrace/donor-audit/internal/repository"
	"github.com/tissuetrace/donor-audit/internal/screening"
	"github.com/tissuetrace/donor-audit/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, pool, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	donors := repository.NewDonorRepository(pool, logger)
	documents := repository.NewDocumentRepository(pool, logger)

	extractor := openai.NewClient(openai.Config{
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientSections: cfg.LLM.LenientSections,
	}, logger)
	logger.Info("extraction client initialized", "model", cfg.LLM.Model)

	processor := pipeline.NewProcessor(logger, pipeline.Config{
		ChunkChars: cfg.Pipeline.ChunkChars,
		Workers:    cfg.Pipeline.Workers,
	}, extractor)

	svc := screening.NewService(logger, donors, documents, processor)

	// Pick up anything left UPLOADED by a previous run before accepting new
	// work.
	if n, err := svc.DrainQueue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("startup drain failed", "error", err)
	} else if n > 0 {
		logger.Info("startup drain complete", "processed", n)
	}

	queue := async.NewScreeningQueue(svc, logger,
		async.WithWorkers(cfg.Pipeline.QueueWorkers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	exporter := export.NewService(donors, documents, logger)

	srv := server.New(logger, svc, queue, donors, documents, exporter, func() error {
		return repository.HealthCheck(context.Background(), pool, 3*time.Second)
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
