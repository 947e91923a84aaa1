package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/imsansingh/llm-structured-data-extractor/constants"
	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
)

// buildWorkbook writes an xlsx with the given sheets (in order) to a temp
// file and returns its path. Each sheet maps rows of cells starting at A1.
func buildWorkbook(t *testing.T, sheets []string, rows map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for r, row := range rows[sheet] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestExtractExcel_Basic(t *testing.T) {
	path := buildWorkbook(t, []string{"Orders"}, map[string][][]any{
		"Orders": {
			{"Item", "Qty", "Price"},
			{"Widget", 2, 9.99},
			{"Gadget", 1, 25},
		},
	})

	res, err := NewExtractor(nil).Extract(context.Background(), FromPath(constants.Excel, path))
	require.NoError(t, err)

	assert.Equal(t, "sheet-dump", res.Method)
	assert.Equal(t, 1, res.Units)
	assert.Contains(t, res.Text, "=== SHEET: Orders ===")
	assert.Contains(t, res.Text, "COLUMNS: Item | Qty | Price")
	assert.Contains(t, res.Text, "ROW 1: Item: Widget | Qty: 2 | Price: 9.99")
	assert.Contains(t, res.Text, "ROW 2: Item: Gadget | Qty: 1 | Price: 25")
}

func TestExtractExcel_SheetOrderAndEmptySheets(t *testing.T) {
	path := buildWorkbook(t, []string{"First", "Blank", "Last"}, map[string][][]any{
		"First": {{"A"}, {"1"}},
		"Last":  {{"B"}, {"2"}},
	})

	res, err := NewExtractor(nil).Extract(context.Background(), FromPath(constants.Excel, path))
	require.NoError(t, err)

	first := bytes.Index([]byte(res.Text), []byte("=== SHEET: First ==="))
	blank := bytes.Index([]byte(res.Text), []byte("=== SHEET: Blank ==="))
	last := bytes.Index([]byte(res.Text), []byte("=== SHEET: Last ==="))
	require.True(t, first >= 0 && blank >= 0 && last >= 0)
	assert.Less(t, first, blank)
	assert.Less(t, blank, last)
	assert.Contains(t, res.Text, "EMPTY SHEET")
	assert.Equal(t, 3, res.Units)
}

func TestExtractExcel_MissingHeaderFallback(t *testing.T) {
	path := buildWorkbook(t, []string{"Sheet1"}, map[string][][]any{
		"Sheet1": {
			{"Name", ""},
			{"Widget", "blue"},
		},
	})

	res, err := NewExtractor(nil).Extract(context.Background(), FromPath(constants.Excel, path))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "ROW 1: Name: Widget | COL2: blue")
}

func TestExtractExcel_AllSheetsEmpty(t *testing.T) {
	path := buildWorkbook(t, []string{"Empty1", "Empty2"}, map[string][][]any{})

	_, err := NewExtractor(nil).Extract(context.Background(), FromPath(constants.Excel, path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyDocument), "got %v", err)
}

func TestExtractExcel_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip container"), 0o644))

	_, err := NewExtractor(nil).Extract(context.Background(), FromPath(constants.Excel, path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnreadableDocument), "got %v", err)
}

func TestExtractExcel_FromBlob(t *testing.T) {
	path := buildWorkbook(t, []string{"Data"}, map[string][][]any{
		"Data": {{"K"}, {"v"}},
	})
	blob, err := os.ReadFile(path)
	require.NoError(t, err)

	res, err := NewExtractor(nil).Extract(context.Background(), FromBlob(constants.Excel, "upload.xlsx", blob))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "=== SHEET: Data ===")
}

func TestExtract_UnsupportedKind(t *testing.T) {
	_, err := NewExtractor(nil).Extract(context.Background(), DocumentHandle{Kind: "WORD", Name: "x.docx"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnreadableDocument), "got %v", err)
}
