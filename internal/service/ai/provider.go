package ai

import "context"

// Provider generates answers for the query endpoint and serves the
// connectivity probe.
type Provider interface {
	// Answer produces a response to the user's query. context describes the
	// scoped document, or "" when no document is selected.
	Answer(ctx context.Context, query, documentContext string) (string, error)
	// Ping sends a fixed test prompt and returns the model's reply.
	Ping(ctx context.Context) (string, error)
	// Model names the underlying model for status reporting.
	Model() string
}
