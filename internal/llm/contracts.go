package llm

import "context"

// PromptString is a fully rendered instruction ready to send to the model.
type PromptString = string

// StructuredExtractor is the interface the orchestrators depend on: one
// prompt in, one parsed record out. Implementations make a single attempt;
// retrying is the caller's decision. The raw model text is always returned
// alongside, even on parse failure, for diagnostics.
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, prompt PromptString) (ExtractionRecord, []byte /*raw*/, error)
}
