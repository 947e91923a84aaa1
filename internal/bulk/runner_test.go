package bulk

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/extract"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm"
)

// stubExtractor returns canned text per file name, or a canned error.
type stubExtractor struct {
	failOn map[string]error
}

func (s *stubExtractor) Extract(_ context.Context, h extract.DocumentHandle) (extract.Result, error) {
	if err, ok := s.failOn[h.Name]; ok {
		return extract.Result{}, err
	}
	return extract.Result{Text: "text of " + h.Name, Units: 1, Method: "stub"}, nil
}

// stubModel returns a fixed record, or a canned error when the prompt
// contains a trigger substring.
type stubModel struct {
	failWhen string
	failErr  error
	calls    int
}

func (s *stubModel) ExtractStructured(_ context.Context, prompt llm.PromptString) (llm.ExtractionRecord, []byte, error) {
	s.calls++
	if s.failWhen != "" && strings.Contains(prompt, s.failWhen) {
		return llm.ExtractionRecord{}, []byte("bad reply"), s.failErr
	}
	rec := llm.ExtractionRecord{DocumentInfo: &llm.DocumentInfo{DocumentType: "invoice"}}
	return rec, []byte(`{}`), nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		full := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("dummy"), 0o644))
	}
}

func TestRun_ProcessesMatchingFiles(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "a.pdf", "b.pdf", "notes.txt", "nested/c.pdf")

	model := &stubModel{}
	r := NewRunner(&stubExtractor{}, model, nil).WithOutputDir(constants.PDF, out)

	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), summary.Matched)
	assert.Equal(t, uint32(3), summary.Succeeded)
	assert.Equal(t, uint32(0), summary.Failed)
	assert.Equal(t, 3, model.calls)

	for _, stem := range []string{"a", "b", "c"} {
		data, err := os.ReadFile(filepath.Join(out, stem+".json"))
		require.NoError(t, err, "missing output for %s", stem)
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Contains(t, m, "document_info")
	}
	_, err = os.Stat(filepath.Join(out, "notes.json"))
	assert.True(t, os.IsNotExist(err), "non-matching file must not produce output")
}

func TestRun_SingleFailureDoesNotStopRun(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "good.pdf", "bad.pdf", "fine.pdf")

	ex := &stubExtractor{failOn: map[string]error{
		"bad.pdf": common.WrapError(common.ErrUnreadableDocument, "bad.pdf"),
	}}
	r := NewRunner(ex, &stubModel{}, nil).WithOutputDir(constants.PDF, out)

	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), summary.Matched)
	assert.Equal(t, uint32(2), summary.Succeeded)
	assert.Equal(t, uint32(1), summary.Failed)

	var failed *FileResult
	for i := range summary.Results {
		if summary.Results[i].Err != "" {
			failed = &summary.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Source, "bad.pdf")
	assert.Equal(t, "unreadable document", failed.Reason)

	_, err = os.Stat(filepath.Join(out, "bad.json"))
	assert.True(t, os.IsNotExist(err), "failed file must not produce output")
}

func TestRun_MalformedModelReplyProducesNoFile(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "weird.pdf")

	model := &stubModel{
		failWhen: "weird.pdf",
		failErr:  common.WrapError(common.ErrMalformedResponse, "not json"),
	}
	r := NewRunner(&stubExtractor{}, model, nil).WithOutputDir(constants.PDF, out)

	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), summary.Failed)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_CollisionOverwrites(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "report.pdf", "sub/report.pdf")

	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).WithOutputDir(constants.PDF, out)
	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), summary.Succeeded)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "same-stem outputs overwrite, not duplicate")
}

func TestRun_HiddenEntriesSkipped(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "visible.pdf", ".hidden.pdf", ".secret/inner.pdf")

	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).WithOutputDir(constants.PDF, out)
	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), summary.Matched)
}

func TestRun_MissingRootFails(t *testing.T) {
	r := NewRunner(&stubExtractor{}, &stubModel{}, nil)
	_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), constants.PDF)
	require.Error(t, err)
}

func TestRun_FileAsRootFails(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "one.pdf")
	r := NewRunner(&stubExtractor{}, &stubModel{}, nil)
	_, err := r.Run(context.Background(), filepath.Join(dir, "one.pdf"), constants.PDF)
	require.Error(t, err)
}

// captureRecorder remembers the last run it was handed.
type captureRecorder struct {
	last *RunRecord
	err  error
}

func (c *captureRecorder) RecordRun(_ context.Context, run RunRecord) error {
	c.last = &run
	return c.err
}

func TestRun_RecorderReceivesRun(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "a.pdf")

	rec := &captureRecorder{}
	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).
		WithOutputDir(constants.PDF, out).
		WithRecorder(rec)

	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)

	require.NotNil(t, rec.last)
	assert.NotEmpty(t, rec.last.ID)
	assert.Equal(t, src, rec.last.Source)
	assert.Equal(t, summary.Succeeded, rec.last.Summary.Succeeded)
}

func TestRun_RecorderFailureDoesNotFailRun(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFiles(t, src, "a.pdf")

	rec := &captureRecorder{err: assert.AnError}
	r := NewRunner(&stubExtractor{}, &stubModel{}, nil).
		WithOutputDir(constants.PDF, out).
		WithRecorder(rec)

	summary, err := r.Run(context.Background(), src, constants.PDF)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), summary.Succeeded)
}
