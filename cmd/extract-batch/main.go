package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/bulk"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/history"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm/gemini"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of documents to process")
		archive = flag.String("zip", "", "zip archive of documents to process")
		kindStr = flag.String("kind", "pdf", "document kind: pdf or excel")
		out     = flag.String("out", "", "output directory (optional, defaults per kind)")
		histDB  = flag.String("history", "", "SQLite run-history path (optional)")
	)
	flag.Parse()

	if (*dir == "") == (*archive == "") {
		printError("Error: exactly one of --dir or --zip is required\n")
		os.Exit(1)
	}

	kind, err := constants.ParseKind(*kindStr)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

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

	ctx := context.Background()

	extractor := extract.NewExtractor(logger)
	model := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	runner := bulk.NewRunner(extractor, model, logger).
		WithOutputDir(constants.PDF, cfg.Output.PDFDir).
		WithOutputDir(constants.Excel, cfg.Output.ExcelDir)
	if *out != "" {
		runner.WithOutputDir(kind, *out)
	}

	dbPath := *histDB
	if dbPath == "" {
		dbPath = cfg.History.DBPath
	}
	if dbPath != "" {
		store, err := history.Open(dbPath, logger)
		if err != nil {
			logger.Error("failed to open run history store", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		runner.WithRecorder(store)
	}

	var summary bulk.Summary
	if *dir != "" {
		summary, err = runner.Run(ctx, *dir, kind)
	} else {
		f, openErr := os.Open(*archive)
		if openErr != nil {
			logger.Error("cannot open archive", "path", *archive, "error", openErr)
			os.Exit(1)
		}
		summary, err = runner.RunArchive(ctx, f, *archive, kind)
		_ = f.Close()
	}
	if err != nil {
		logger.Error("bulk run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nProcessed %d/%d matching %s file(s): %d succeeded, %d failed\n",
		summary.Succeeded+summary.Failed, summary.Matched, kind, summary.Succeeded, summary.Failed)
	for _, fr := range summary.Results {
		if fr.Err != "" {
			fmt.Printf("  FAILED  %s: %s\n", fr.Source, fr.Err)
		} else {
			fmt.Printf("  OK      %s -> %s\n", fr.Source, fr.OutputPath)
		}
	}
}
