package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRecordShapeSchema returns the JSON-Schema (draft 2020-12 subset) the
// model reply is checked against. It pins only the basic shape — the five
// fixed sections with their container types — and deliberately leaves
// additional properties open: extra business fields pass through untouched.
func BuildRecordShapeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_info": map[string]any{"type": "object"},
			"vendor_info":   map[string]any{"type": "object"},
			"customer_info": map[string]any{"type": "object"},
			"line_items":    map[string]any{"type": "array"},
			"totals":        map[string]any{"type": "object"},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
