package bulk

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
)

// RunArchive expands a zip archive into a scratch directory and runs the
// folder flow over it. The scratch directory is removed when the run
// finishes, success or failure. An unreadable archive fails the whole run;
// per-file extraction failures inside a valid archive do not.
func (r *Runner) RunArchive(ctx context.Context, archive io.Reader, name string, kind constants.DocumentKind) (Summary, error) {
	scratch, err := os.MkdirTemp("", "bulk-archive-*")
	if err != nil {
		return Summary{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(scratch); rerr != nil {
			r.logger.Warn("bulk.archive.scratch_cleanup_failed", "dir", scratch, "error", rerr)
		}
	}()

	zipPath := filepath.Join(scratch, "uploaded.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		return Summary{}, fmt.Errorf("stage archive: %w", err)
	}
	if _, err := io.Copy(zf, archive); err != nil {
		_ = zf.Close()
		return Summary{}, fmt.Errorf("stage archive: %w", err)
	}
	if err := zf.Close(); err != nil {
		return Summary{}, fmt.Errorf("stage archive: %w", err)
	}

	contents := filepath.Join(scratch, "contents")
	if err := unzip(zipPath, contents); err != nil {
		return Summary{}, fmt.Errorf("invalid zip archive: %w", err)
	}

	label := name
	if label == "" {
		label = "uploaded archive"
	}
	return r.run(ctx, contents, label, kind)
}

// unzip extracts an archive into dest, rejecting entries that would escape it.
func unzip(zipPath, dest string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(dest, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal entry path: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
