package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_Deterministic(t *testing.T) {
	a := BuildPrompt("INVOICE #42\nTotal: $10", "PDF document")
	b := BuildPrompt("INVOICE #42\nTotal: $10", "PDF document")
	assert.Equal(t, a, b)
}

func TestBuildPrompt_ContainsTextVerbatim(t *testing.T) {
	text := "=== SHEET: Orders ===\nROW 1: item: Widget | price: 9.99"
	p := BuildPrompt(text, "Excel spreadsheet")

	assert.True(t, strings.HasSuffix(p, text), "extracted text must be appended verbatim at the end")
	assert.Contains(t, p, "Excel spreadsheet")
	assert.Contains(t, p, "Excel spreadsheet data to analyze:")
}

func TestBuildPrompt_SchemaBlock(t *testing.T) {
	p := BuildPrompt("some text", "PDF document")

	for _, key := range []string{
		`"document_info"`, `"vendor_info"`, `"customer_info"`, `"line_items"`, `"totals"`,
	} {
		assert.Contains(t, p, key)
	}
	assert.Contains(t, p, "line_items must always be a JSON array")
	assert.Contains(t, p, "Do not include keys whose value is null")
}

func TestBuildPrompt_DefaultHint(t *testing.T) {
	p := BuildPrompt("text", "")
	assert.Contains(t, p, "the following document")
	assert.Contains(t, p, "Document data to analyze:")
}

func TestBuildPrompt_DistinctHints(t *testing.T) {
	pdf := BuildPrompt("same text", "PDF document")
	xls := BuildPrompt("same text", "Excel spreadsheet")
	require.NotEqual(t, pdf, xls)
}
