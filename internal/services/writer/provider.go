package writer

import "context"

// Provider is one generative-text backend. Implementations handle their
// own API-level timeouts; rate limiting and retry live in the service.
type Provider interface {
	// Generate returns the completion for a prompt.
	Generate(ctx context.Context, system, prompt string) (string, error)
	// Name identifies the provider in logs.
	Name() string
}
