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

	"github.com/joho/godotenv"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/bulk"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/history"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm/gemini"
	"github.com/imsansingh/llm-structured-data-extractor/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

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

	extractor := extract.NewExtractor(logger)
	model := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("gemini client initialized", "model", cfg.LLM.Model)

	runner := bulk.NewRunner(extractor, model, logger).
		WithOutputDir(constants.PDF, cfg.Output.PDFDir).
		WithOutputDir(constants.Excel, cfg.Output.ExcelDir)

	srv := server.New(extractor, model, runner, cfg.Server, logger)

	if cfg.History.DBPath != "" {
		store, err := history.Open(cfg.History.DBPath, logger)
		if err != nil {
			logger.Error("failed to open run history store", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		runner.WithRecorder(store)
		srv.WithHistory(store)
	} else {
		logger.Info("run history disabled")
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
