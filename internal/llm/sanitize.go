package llm

import "strings"

// StripCodeFences removes a leading/trailing Markdown code fence from model
// output, including an optional language tag ("```json"). Text without
// fences passes through unchanged apart from whitespace trimming.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// drop the language tag on the opening fence line, if any
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || isFenceTag(first) {
			s = s[i+1:]
		}
	} else {
		// single-line fence like "```json {...} ```"
		s = strings.TrimSpace(s)
		if lower := strings.ToLower(s); strings.HasPrefix(lower, "json") {
			s = strings.TrimSpace(s[4:])
		}
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
