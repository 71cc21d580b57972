package rerank

import "context"

// Generator invokes a generative model with a system and user prompt and
// returns the raw completion text.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
