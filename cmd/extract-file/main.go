// extract-file runs the pipeline on a single document and prints the
// structured record to stdout. Useful for prompt tuning and smoke checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm/gemini"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: extract-file <path> [pdf|excel]")
		os.Exit(2)
	}
	path := os.Args[1]

	var kind constants.DocumentKind
	var err error
	if len(os.Args) >= 3 {
		kind, err = constants.ParseKind(os.Args[2])
	} else {
		kind, err = constants.KindForExt(constants.NormalizeExt(filepath.Ext(path)))
	}
	if err != nil {
		logger.Error("cannot determine document kind", "path", path, "error", err)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := extract.NewExtractor(logger).Extract(ctx, extract.FromPath(kind, path))
	if err != nil {
		logger.Error("extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	model := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	rec, _, err := model.ExtractStructured(ctx, llm.BuildPrompt(res.Text, kind.PromptHint()))
	if err != nil {
		logger.Error("structured extraction failed", "path", path, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Error("cannot encode record", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
