package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Amount is a money or quantity leaf. Models flip between JSON numbers and
// numeric strings for these, so decoding tolerates both ("1,234.56" included);
// encoding is always a plain number.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*a = Amount(f)
	return nil
}

// DocumentInfo describes the document itself.
type DocumentInfo struct {
	DocumentType   string `json:"document_type,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	Date           string `json:"date,omitempty"`
	DueDate        string `json:"due_date,omitempty"`
	Currency       string `json:"currency,omitempty"`
}

// PartyInfo identifies the vendor or customer side of the document.
type PartyInfo struct {
	CompanyName string `json:"company_name,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
}

// LineItem is one ordered entry of the document's item table.
type LineItem struct {
	Description string  `json:"description,omitempty"`
	Quantity    *Amount `json:"quantity,omitempty"`
	UnitPrice   *Amount `json:"unit_price,omitempty"`
	TotalPrice  *Amount `json:"total_price,omitempty"`
}

// Totals carries the document-level sums.
type Totals struct {
	Subtotal  *Amount `json:"subtotal,omitempty"`
	TaxAmount *Amount `json:"tax_amount,omitempty"`
	Total     *Amount `json:"total_amount,omitempty"`
}

// ExtractionRecord is the structured result of processing one document.
// Every leaf is optional; absent values are omitted from serialized output,
// never written as null. LineItems is always a slice, even when the source
// document has zero or one item. Extra holds any additional business fields
// the model found (shipping address, delivery date, ...) and is passed
// through untouched apart from null scrubbing.
type ExtractionRecord struct {
	DocumentInfo *DocumentInfo
	VendorInfo   *PartyInfo
	CustomerInfo *PartyInfo
	LineItems    []LineItem
	Totals       *Totals
	Extra        map[string]json.RawMessage
}

var knownRecordKeys = map[string]struct{}{
	"document_info": {},
	"vendor_info":   {},
	"customer_info": {},
	"line_items":    {},
	"totals":        {},
}

// MarshalJSON writes the fixed schema keys in order, then the extra business
// fields sorted by name. Null-valued extras are dropped.
func (r ExtractionRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeRaw := func(key string, data []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(key))
		buf.WriteByte(':')
		buf.Write(data)
	}
	write := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		writeRaw(key, data)
		return nil
	}

	if r.DocumentInfo != nil {
		if err := write("document_info", r.DocumentInfo); err != nil {
			return nil, err
		}
	}
	if r.VendorInfo != nil {
		if err := write("vendor_info", r.VendorInfo); err != nil {
			return nil, err
		}
	}
	if r.CustomerInfo != nil {
		if err := write("customer_info", r.CustomerInfo); err != nil {
			return nil, err
		}
	}
	items := r.LineItems
	if items == nil {
		items = []LineItem{}
	}
	if err := write("line_items", items); err != nil {
		return nil, err
	}
	if r.Totals != nil {
		if err := write("totals", r.Totals); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if raw := r.Extra[k]; !isNullRaw(raw) {
			writeRaw(k, raw)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON splits the fixed schema keys from extra business fields and
// drops sections the model returned fully empty.
func (r *ExtractionRecord) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}

	if raw, ok := m["document_info"]; ok && !isNullRaw(raw) {
		var di DocumentInfo
		if err := json.Unmarshal(raw, &di); err != nil {
			return fmt.Errorf("document_info: %w", err)
		}
		if di != (DocumentInfo{}) {
			r.DocumentInfo = &di
		}
	}
	if raw, ok := m["vendor_info"]; ok && !isNullRaw(raw) {
		var pi PartyInfo
		if err := json.Unmarshal(raw, &pi); err != nil {
			return fmt.Errorf("vendor_info: %w", err)
		}
		if pi != (PartyInfo{}) {
			r.VendorInfo = &pi
		}
	}
	if raw, ok := m["customer_info"]; ok && !isNullRaw(raw) {
		var pi PartyInfo
		if err := json.Unmarshal(raw, &pi); err != nil {
			return fmt.Errorf("customer_info: %w", err)
		}
		if pi != (PartyInfo{}) {
			r.CustomerInfo = &pi
		}
	}
	if raw, ok := m["line_items"]; ok && !isNullRaw(raw) {
		items, err := decodeLineItems(raw)
		if err != nil {
			return fmt.Errorf("line_items: %w", err)
		}
		r.LineItems = items
	}
	if raw, ok := m["totals"]; ok && !isNullRaw(raw) {
		var t Totals
		if err := json.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		if t != (Totals{}) {
			r.Totals = &t
		}
	}

	for k, raw := range m {
		if _, known := knownRecordKeys[k]; known {
			continue
		}
		if isNullRaw(raw) {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = scrubNulls(raw)
	}

	if r.LineItems == nil {
		r.LineItems = []LineItem{}
	}
	return nil
}

// decodeLineItems accepts either an array or, leniently, a single object the
// model should have wrapped in one.
func decodeLineItems(raw json.RawMessage) ([]LineItem, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item LineItem
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil, err
		}
		return []LineItem{item}, nil
	}
	var items []LineItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func isNullRaw(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// scrubNulls removes null-valued object members at any depth so serialized
// output never carries a null. Arrays keep their shape.
func scrubNulls(raw json.RawMessage) json.RawMessage {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(dropNulls(v))
	if err != nil {
		return raw
	}
	return out
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if val == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = dropNulls(val)
		}
		return t
	default:
		return v
	}
}
