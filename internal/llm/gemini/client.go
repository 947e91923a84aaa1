package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imsansingh/llm-structured-data-extractor/internal/common"
	"github.com/imsansingh/llm-structured-data-extractor/internal/llm"
)

// generateContent response envelope; only the fields we read.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractStructured implements llm.StructuredExtractor against the Gemini
// generateContent REST API. One request per call, JSON response mode, no
// retry — the caller decides whether to re-invoke.
func (c *Client) ExtractStructured(ctx context.Context, prompt llm.PromptString) (llm.ExtractionRecord, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":      c.cfg.Temperature,
			"responseMimeType": "application/json",
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model + ":generateContent"
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	raw, status, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, rid, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractionRecord{}, raw, fmt.Errorf("%w: %v", common.ErrServiceFailure, err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractionRecord{}, raw, fmt.Errorf("%w: decode generateContent response: %v", common.ErrServiceFailure, err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.log.Error("llm.extract.no_candidates",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractionRecord{}, raw, fmt.Errorf("%w: no candidates in response", common.ErrServiceFailure)
	}

	var sb strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	content := llm.StripCodeFences(sb.String())
	rawContent := []byte(content)

	rec, err := llm.DecodeRecord(rawContent)
	if err != nil {
		c.log.Error("llm.extract.malformed_response",
			"req_id", rid, "error", err, "content_bytes", len(rawContent),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ExtractionRecord{}, rawContent, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"line_items", len(rec.LineItems),
		"extra_fields", len(rec.Extra),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, rawContent, nil
}
