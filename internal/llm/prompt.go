package llm

import "strings"

// recordStructure is the fixed schema block embedded in every prompt. The
// wording mirrors the serialized ExtractionRecord exactly: what the model is
// told to emit is what DecodeRecord expects back.
const recordStructure = `{
  "document_info": {
    "document_type": "string or null",
    "document_number": "string or null",
    "date": "string or null",
    "due_date": "string or null",
    "currency": "string or null"
  },
  "vendor_info": {
    "company_name": "string or null",
    "address": "string or null",
    "phone": "string or null",
    "email": "string or null",
    "tax_id": "string or null"
  },
  "customer_info": {
    "company_name": "string or null",
    "address": "string or null",
    "phone": "string or null",
    "email": "string or null"
  },
  "line_items": [
    {
      "description": "string or null",
      "quantity": "float or null",
      "unit_price": "float or null",
      "total_price": "float or null"
    }
  ],
  "totals": {
    "subtotal": "float or null",
    "tax_amount": "float or null",
    "total_amount": "float or null"
  }
}`

// BuildPrompt renders the fixed extraction instruction for one document.
// Pure and deterministic: same text and hint, same prompt. The extracted
// text is appended verbatim; bounding its size is the caller's problem.
func BuildPrompt(text string, docTypeHint string) PromptString {
	hint := strings.TrimSpace(docTypeHint)
	if hint == "" {
		hint = "document"
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant that extracts essential structured data from business documents.\n\n")
	b.WriteString("Extract the key information from the following ")
	b.WriteString(hint)
	b.WriteString(" and return ONLY valid JSON.\n\n")
	b.WriteString("JSON structure:\n")
	b.WriteString(recordStructure)
	b.WriteString("\n\n")
	b.WriteString("Also extract other business data present in the document, such as shipping address or delivery date, ")
	b.WriteString("as additional top-level fields. Only include such fields if they are present in the document.\n")
	b.WriteString("line_items must always be a JSON array, even for a single item.\n")
	b.WriteString("Do not include keys whose value is null; omit them entirely.\n\n")
	b.WriteString(capitalize(hint))
	b.WriteString(" data to analyze:\n")
	b.WriteString(text)
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
