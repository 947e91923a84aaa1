package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
)

// DecodeRecord parses cleaned model text (fences already stripped) into an
// ExtractionRecord. Any failure — not JSON, not an object, wrong container
// type for a fixed section — maps to common.ErrMalformedResponse; the caller
// keeps the raw text for diagnostics.
func DecodeRecord(raw []byte) (ExtractionRecord, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ExtractionRecord{}, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}

	// Models occasionally emit a lone object for a one-item table; wrap it
	// before shape validation so the record still parses.
	if items, ok := m["line_items"]; ok {
		trimmed := bytes.TrimSpace(items)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			wrapped := make(json.RawMessage, 0, len(trimmed)+2)
			wrapped = append(wrapped, '[')
			wrapped = append(wrapped, trimmed...)
			wrapped = append(wrapped, ']')
			m["line_items"] = wrapped
		}
	}

	cleaned, err := json.Marshal(m)
	if err != nil {
		return ExtractionRecord{}, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	if err := ValidateJSONAgainstSchema(BuildRecordShapeSchema(), cleaned); err != nil {
		return ExtractionRecord{}, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}

	var rec ExtractionRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return ExtractionRecord{}, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return rec, nil
}
