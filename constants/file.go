package constants

import (
	"fmt"
	"strings"
)

// DocumentKind selects the extraction path for an input document.
type DocumentKind string

const (
	PDF   DocumentKind = "PDF"
	Excel DocumentKind = "EXCEL"
)

// KindExtensions holds the file extensions matched per document kind during
// bulk enumeration. Legacy .xls is matched on purpose: the spreadsheet reader
// rejects it at open time, which surfaces as a per-file failure instead of a
// silently skipped input.
var KindExtensions = map[DocumentKind][]string{
	PDF:   {"pdf"},
	Excel: {"xlsx", "xlsm", "xls"},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ParseKind maps user input ("pdf", "excel", "xlsx") to a DocumentKind.
func ParseKind(s string) (DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return PDF, nil
	case "excel", "xlsx", "spreadsheet":
		return Excel, nil
	default:
		return "", fmt.Errorf("unknown document kind: %q", s)
	}
}

// KindForExt infers the document kind from a normalized file extension.
func KindForExt(ext string) (DocumentKind, error) {
	for kind, exts := range KindExtensions {
		for _, e := range exts {
			if e == ext {
				return kind, nil
			}
		}
	}
	return "", fmt.Errorf("no document kind for extension: %q", ext)
}

// PromptHint is the document-type wording embedded in the LLM prompt.
func (k DocumentKind) PromptHint() string {
	switch k {
	case PDF:
		return "PDF document"
	case Excel:
		return "Excel spreadsheet"
	default:
		return "document"
	}
}

// DefaultOutputDir is the per-kind directory bulk results are written to
// when no override is configured.
func (k DocumentKind) DefaultOutputDir() string {
	switch k {
	case Excel:
		return "json_output_excel"
	default:
		return "json_output_pdf"
	}
}

// MatchesExt reports whether a (possibly dotted) extension belongs to the kind.
func (k DocumentKind) MatchesExt(ext string) bool {
	ext = NormalizeExt(ext)
	for _, e := range KindExtensions[k] {
		if e == ext {
			return true
		}
	}
	return false
}
