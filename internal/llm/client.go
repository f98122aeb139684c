package llm

import (
	"context"
)

// LLMClient is the classifier boundary: the core treats the language model as
// an opaque text-in/text-out function. Transport, auth and rate limiting live
// behind this interface, never in the core.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
