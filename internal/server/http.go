// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/bulk"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/history"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm"
)

// HistoryReader is the read side of the run-history store. Nil means history
// is disabled and the /runs endpoints report unavailable.
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	ListRunFiles(ctx context.Context, runID string) ([]history.FileOutcome, error)
}

type Server struct {
	extractor extract.TextExtractor
	model     llm.StructuredExtractor
	runner    *bulk.Runner
	hist      HistoryReader
	maxUpload int64
	logger    *slog.Logger
}

func New(ex extract.TextExtractor, model llm.StructuredExtractor, runner *bulk.Runner, cfg common.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		extractor: ex,
		model:     model,
		runner:    runner,
		maxUpload: cfg.MaxUploadMB << 20,
		logger:    logger,
	}
}

// WithHistory enables the /runs endpoints.
func (s *Server) WithHistory(h HistoryReader) *Server {
	s.hist = h
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.MaxMultipartMemory = s.maxUpload

	r.GET("/healthz", s.handleHealth)
	r.POST("/extract/pdf", s.handleExtract(constants.PDF))
	r.POST("/extract/excel", s.handleExtract(constants.Excel))
	r.POST("/bulk/folder", s.handleBulkFolder)
	r.POST("/bulk/archive", s.handleBulkArchive)
	r.GET("/runs", s.handleListRuns)
	r.GET("/runs/:id/files", s.handleListRunFiles)
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := uuid.New().String()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Next()
		s.logger.Info("http.request",
			"request_id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps pipeline failures onto HTTP statuses. Client-supplied
// documents that cannot be parsed or carry no text are the client's problem;
// upstream model failures are a bad gateway.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnreadableDocument), errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrMalformedResponse), errors.Is(err, common.ErrServiceFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":  err.Error(),
		"reason": common.FailureReason(err),
	})
}
