package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
)

// DocumentHandle is an immutable reference to one input document: either a
// filesystem path or an in-memory uploaded blob, tagged with its kind.
type DocumentHandle struct {
	Kind constants.DocumentKind
	Path string // filesystem-backed input
	Name string // original filename (display / hints)
	Blob []byte // in-memory upload; used when Path is empty
}

// FromPath builds a path-backed handle.
func FromPath(kind constants.DocumentKind, path string) DocumentHandle {
	return DocumentHandle{Kind: kind, Path: path, Name: filepath.Base(path)}
}

// FromBlob builds a handle around an uploaded in-memory document.
func FromBlob(kind constants.DocumentKind, name string, data []byte) DocumentHandle {
	return DocumentHandle{Kind: kind, Name: name, Blob: data}
}

// Result is the outcome of text extraction for a single document.
type Result struct {
	Text     string
	Units    int    // pages for PDF, sheets for spreadsheets
	Method   string // "pdf-text" | "sheet-dump"
	Duration time.Duration
}

// TextExtractor is stage 1 of the pipeline: document -> plain text.
type TextExtractor interface {
	Extract(ctx context.Context, h DocumentHandle) (Result, error)
}

// Extractor dispatches on document kind. It reads the input handle and has
// no other side effects.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract produces the single plain-text representation of a document.
// Errors: common.ErrUnreadableDocument when the underlying library cannot
// parse the input, common.ErrEmptyDocument when parsing yields no text/rows.
func (e *Extractor) Extract(ctx context.Context, h DocumentHandle) (Result, error) {
	start := time.Now()
	e.logger.Debug("extract.start", "name", h.Name, "kind", h.Kind, "path", h.Path != "")

	var res Result
	var err error
	switch h.Kind {
	case constants.PDF:
		res, err = e.extractPDF(ctx, h)
	case constants.Excel:
		res, err = e.extractExcel(ctx, h)
	default:
		err = common.WrapError(common.ErrUnreadableDocument, "unsupported document kind "+string(h.Kind))
	}
	if err != nil {
		e.logger.Warn("extract.failed", "name", h.Name, "kind", h.Kind, "error", err)
		return Result{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		e.logger.Warn("extract.empty", "name", h.Name, "kind", h.Kind)
		return Result{}, common.WrapError(common.ErrEmptyDocument, h.Name)
	}

	res.Duration = time.Since(start)
	e.logger.Info("extract.ok",
		"name", h.Name,
		"kind", h.Kind,
		"method", res.Method,
		"units", res.Units,
		"text_bytes", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
