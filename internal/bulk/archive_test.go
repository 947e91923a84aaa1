package bulk

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
)

func buildZip(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestRunArchive_ProcessesEntries(t *testing.T) {
	out := t.TempDir()
	archive := buildZip(t, map[string]string{
		"a.pdf":        "dummy",
		"nested/b.pdf": "dummy",
		"skip.txt":     "dummy",
	})

	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).WithOutputDir(constants.PDF, out)
	summary, err := r.RunArchive(context.Background(), archive, "upload.zip", constants.PDF)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), summary.Matched)
	assert.Equal(t, uint32(2), summary.Succeeded)
}

func TestRunArchive_InvalidZipFailsRun(t *testing.T) {
	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).WithOutputDir(constants.PDF, t.TempDir())
	_, err := r.RunArchive(context.Background(), strings.NewReader("not a zip"), "bad.zip", constants.PDF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid zip archive")
}

func TestRunArchive_RejectsEscapingEntries(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"../escape.pdf": "dummy",
	})

	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).WithOutputDir(constants.PDF, t.TempDir())
	_, err := r.RunArchive(context.Background(), archive, "evil.zip", constants.PDF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal entry path")
}

func TestRunArchive_RecorderUsesArchiveName(t *testing.T) {
	out := t.TempDir()
	archive := buildZip(t, map[string]string{"a.pdf": "dummy"})

	rec := &captureRecorder{}
	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).
		WithOutputDir(constants.PDF, out).
		WithRecorder(rec)

	_, err := r.RunArchive(context.Background(), archive, "invoices.zip", constants.PDF)
	require.NoError(t, err)
	require.NotNil(t, rec.last)
	assert.Equal(t, "invoices.zip", rec.last.Source)
}
