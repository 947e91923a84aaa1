package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm"
)

// FileResult is the per-file outcome of a bulk run.
type FileResult struct {
	Source     string `json:"source"`
	OutputPath string `json:"output_path,omitempty"`
	Err        string `json:"error,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Summary aggregates one bulk run.
type Summary struct {
	Kind      constants.DocumentKind `json:"kind"`
	Scanned   uint32                 `json:"scanned"`
	Matched   uint32                 `json:"matched"`
	Succeeded uint32                 `json:"succeeded"`
	Failed    uint32                 `json:"failed"`
	Results   []FileResult           `json:"results"`
}

// RunRecord is what gets handed to a Recorder after a run completes.
type RunRecord struct {
	ID         string
	Kind       constants.DocumentKind
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    Summary
}

// Recorder persists finished runs. Optional; a nil Recorder disables history
// without changing run behavior.
type Recorder interface {
	RecordRun(ctx context.Context, run RunRecord) error
}

// Runner walks a folder (or expanded archive), processes every matching
// document sequentially, and writes one JSON file per success. A single
// file's failure is recorded and the run continues; only conditions outside
// any one file (unreadable root, bad archive) fail the run itself.
type Runner struct {
	extractor extract.TextExtractor
	model     llm.StructuredExtractor
	outDirs   map[constants.DocumentKind]string
	recorder  Recorder
	logger    *slog.Logger
}

func NewRunner(ex extract.TextExtractor, model llm.StructuredExtractor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		extractor: ex,
		model:     model,
		outDirs:   make(map[constants.DocumentKind]string),
		logger:    logger,
	}
}

// WithOutputDir overrides the output directory for a kind.
func (r *Runner) WithOutputDir(kind constants.DocumentKind, dir string) *Runner {
	if dir != "" {
		r.outDirs[kind] = dir
	}
	return r
}

// WithRecorder attaches a run-history recorder.
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	r.recorder = rec
	return r
}

func (r *Runner) outputDir(kind constants.DocumentKind) string {
	if dir, ok := r.outDirs[kind]; ok {
		return dir
	}
	return kind.DefaultOutputDir()
}

// Run processes every file under root whose extension matches the kind,
// recursing into subdirectories. Hidden entries are skipped.
func (r *Runner) Run(ctx context.Context, root string, kind constants.DocumentKind) (Summary, error) {
	return r.run(ctx, root, root, kind)
}

// run uses sourceLabel (the user-facing source) for logging and history while
// walking walkRoot, which may be an archive scratch dir.
func (r *Runner) run(ctx context.Context, walkRoot, sourceLabel string, kind constants.DocumentKind) (Summary, error) {
	if strings.TrimSpace(walkRoot) == "" {
		return Summary{}, errors.New("source path is required")
	}
	st, err := os.Stat(walkRoot)
	if err != nil {
		return Summary{}, fmt.Errorf("source folder: %w", err)
	}
	if !st.IsDir() {
		return Summary{}, fmt.Errorf("source folder: %s is not a directory", walkRoot)
	}

	outDir := r.outputDir(kind)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("%w: create %s: %v", common.ErrOutputWrite, outDir, err)
	}

	started := time.Now()
	summary := Summary{Kind: kind}
	r.logger.Info("bulk.run.start", "source", sourceLabel, "kind", kind, "out_dir", outDir)

	walkErr := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, werr error) error {
		summary.Scanned++
		if werr != nil {
			summary.Results = append(summary.Results, FileResult{Source: path, Err: werr.Error()})
			summary.Failed++
			return nil // keep walking
		}
		if isHidden(path) && path != walkRoot {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !kind.MatchesExt(filepath.Ext(path)) {
			return nil
		}
		summary.Matched++

		outPath, perr := r.processFile(ctx, path, outDir, kind)
		if perr != nil {
			r.logger.Warn("bulk.file.failed", "source", path, "error", perr)
			summary.Results = append(summary.Results, FileResult{
				Source: path,
				Err:    perr.Error(),
				Reason: common.FailureReason(perr),
			})
			summary.Failed++
			return nil
		}
		r.logger.Info("bulk.file.ok", "source", path, "output", outPath)
		summary.Results = append(summary.Results, FileResult{Source: path, OutputPath: outPath})
		summary.Succeeded++
		return nil
	})
	if walkErr != nil {
		return summary, fmt.Errorf("walk: %w", walkErr)
	}

	r.logger.Info("bulk.run.ok",
		"source", sourceLabel,
		"kind", kind,
		"scanned", summary.Scanned,
		"matched", summary.Matched,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	r.record(ctx, RunRecord{
		Kind:       kind,
		Source:     sourceLabel,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Summary:    summary,
	})
	return summary, nil
}

// processFile is the whole per-document pipeline: extract text, build the
// prompt, call the model, persist the record.
func (r *Runner) processFile(ctx context.Context, path, outDir string, kind constants.DocumentKind) (string, error) {
	res, err := r.extractor.Extract(ctx, extract.FromPath(kind, path))
	if err != nil {
		return "", err
	}

	prompt := llm.BuildPrompt(res.Text, kind.PromptHint())
	rec, _, err := r.model.ExtractStructured(ctx, prompt)
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, stem+".json")

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", common.ErrOutputWrite, outPath, err)
	}
	// same-stem inputs overwrite silently; output names derive only from the stem
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("%w: %s: %v", common.ErrOutputWrite, outPath, err)
	}
	return outPath, nil
}

func (r *Runner) record(ctx context.Context, run RunRecord) {
	if r.recorder == nil {
		return
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if err := r.recorder.RecordRun(ctx, run); err != nil {
		// history is best-effort; the run result stands on its own
		r.logger.Warn("bulk.history.record_failed", "source", run.Source, "error", err)
	}
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
