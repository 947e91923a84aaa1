package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/history"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm"
)

// handleExtract runs the full pipeline on one uploaded document and returns
// the structured record. Nothing is written to disk.
func (s *Server) handleExtract(kind constants.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		blob, name, err := s.readUpload(c)
		if err != nil {
			s.fail(c, err)
			return
		}
		if !kind.MatchesExt(filepath.Ext(name)) {
			s.fail(c, common.WrapError(common.ErrInvalidInput,
				"file extension does not match "+string(kind)))
			return
		}

		ctx := c.Request.Context()
		res, err := s.extractor.Extract(ctx, extract.FromBlob(kind, name, blob))
		if err != nil {
			s.fail(c, err)
			return
		}
		prompt := llm.BuildPrompt(res.Text, kind.PromptHint())
		rec, _, err := s.model.ExtractStructured(ctx, prompt)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

type bulkFolderRequest struct {
	Path string `json:"path" binding:"required"`
	Kind string `json:"kind" binding:"required"`
}

func (s *Server) handleBulkFolder(c *gin.Context) {
	var req bulkFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, "invalid request body"))
		return
	}
	kind, err := constants.ParseKind(req.Kind)
	if err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, err.Error()))
		return
	}

	summary, err := s.runner.Run(c.Request.Context(), req.Path, kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleBulkArchive(c *gin.Context) {
	kind, err := constants.ParseKind(c.PostForm("kind"))
	if err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, err.Error()))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, "missing file upload"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, "cannot open upload"))
		return
	}
	defer func() { _ = f.Close() }()

	summary, err := s.runner.RunArchive(c.Request.Context(), f, fh.Filename, kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.hist == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}
	limit := 50
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := s.hist.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleListRunFiles(c *gin.Context) {
	if s.hist == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is disabled"})
		return
	}
	files, err := s.hist.ListRunFiles(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if files == nil {
		files = []history.FileOutcome{}
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// readUpload pulls the single "file" part of a multipart request into memory,
// bounded by the configured upload limit.
func (s *Server) readUpload(c *gin.Context) ([]byte, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", common.WrapError(common.ErrInvalidInput, "missing file upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", common.WrapError(common.ErrInvalidInput, "cannot open upload")
	}
	defer func() { _ = f.Close() }()

	blob, err := io.ReadAll(f)
	if err != nil {
		return nil, "", common.WrapError(common.ErrInvalidInput, "cannot read upload")
	}
	return blob, fh.Filename, nil
}
