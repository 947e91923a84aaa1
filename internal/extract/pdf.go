package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
)

// extractPDF concatenates the text of every page in document order, separated
// by a single newline. Pages that yield no text contribute nothing; only a
// fully textless document is an error (checked by the caller).
func (e *Extractor) extractPDF(_ context.Context, h DocumentHandle) (res Result, err error) {
	// The pdf package panics on some malformed cross-reference tables
	// instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", common.ErrUnreadableDocument, h.Name, r)
		}
	}()

	var reader *pdf.Reader
	if h.Path != "" {
		f, r, openErr := pdf.Open(h.Path)
		if openErr != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", common.ErrUnreadableDocument, h.Name, openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				e.logger.Warn("extract.pdf.close_error", "name", h.Name, "error", cerr)
			}
		}()
		reader = r
	} else {
		r, openErr := pdf.NewReader(bytes.NewReader(h.Blob), int64(len(h.Blob)))
		if openErr != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", common.ErrUnreadableDocument, h.Name, openErr)
		}
		reader = r
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			// a single unreadable page is not fatal
			e.logger.Warn("extract.pdf.page_error", "name", h.Name, "page", i, "error", pageErr)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}

	return Result{Text: b.String(), Units: pages, Method: "pdf-text"}, nil
}
