package driven

import "context"

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is the system prompt, if the provider supports one.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// GenerationService produces text completions for answer generation.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT models)
type GenerationService interface {
	// Generate produces a completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerationFactory builds a GenerationService for an explicit
// provider/model reference. Used by the query engine to honour corpus
// personas and per-request model overrides.
type GenerationFactory func(provider, model, baseURL string) (GenerationService, error)
