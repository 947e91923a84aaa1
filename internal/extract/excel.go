package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
)

// extractExcel renders every sheet in file order: a header line naming the
// sheet, a COLUMNS line, then one line per data row with "header: value"
// cells joined by " | ". Cell values are excelize display strings; numeric
// and date cells are never re-parsed.
func (e *Extractor) extractExcel(_ context.Context, h DocumentHandle) (Result, error) {
	var f *excelize.File
	var err error
	if h.Path != "" {
		f, err = excelize.OpenFile(h.Path)
	} else {
		f, err = excelize.OpenReader(bytes.NewReader(h.Blob))
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", common.ErrUnreadableDocument, h.Name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.excel.close_error", "name", h.Name, "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	var b strings.Builder
	hasRows := false
	for _, sheet := range sheets {
		rows, rowErr := f.GetRows(sheet)
		if rowErr != nil {
			return Result{}, fmt.Errorf("%w: %s: sheet %q: %v", common.ErrUnreadableDocument, h.Name, sheet, rowErr)
		}

		fmt.Fprintf(&b, "=== SHEET: %s ===\n", sheet)
		if len(rows) == 0 {
			b.WriteString("EMPTY SHEET\n")
			continue
		}
		hasRows = true

		headers := rows[0]
		b.WriteString("COLUMNS: " + strings.Join(headers, " | ") + "\n")
		for i, row := range rows[1:] {
			cells := make([]string, 0, len(row))
			for j, val := range row {
				name := fmt.Sprintf("COL%d", j+1)
				if j < len(headers) && strings.TrimSpace(headers[j]) != "" {
					name = headers[j]
				}
				cells = append(cells, name+": "+val)
			}
			fmt.Fprintf(&b, "ROW %d: %s\n", i+1, strings.Join(cells, " | "))
		}
	}

	if !hasRows {
		return Result{}, fmt.Errorf("%w: %s: no rows in any sheet", common.ErrEmptyDocument, h.Name)
	}
	return Result{Text: b.String(), Units: len(sheets), Method: "sheet-dump"}, nil
}
