package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
)

func TestExtractPDF_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 truncated before any object"), 0o644))

	_, err := NewExtractor(nil).Extract(context.Background(), FromPath(constants.PDF, path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnreadableDocument), "got %v", err)
}

func TestExtractPDF_NotAPDF(t *testing.T) {
	blob := []byte("plain text pretending to be a pdf")

	_, err := NewExtractor(nil).Extract(context.Background(), FromBlob(constants.PDF, "fake.pdf", blob))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnreadableDocument), "got %v", err)
}

func TestExtractPDF_MissingFile(t *testing.T) {
	_, err := NewExtractor(nil).Extract(context.Background(),
		FromPath(constants.PDF, filepath.Join(t.TempDir(), "nope.pdf")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnreadableDocument), "got %v", err)
}
