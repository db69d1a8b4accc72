package ai

import (
	"context"
	"fmt"
)

// EchoProvider is the development fallback used when no Gemini key is
// configured. It reflects the query back so the full client flow can be
// exercised offline.
type EchoProvider struct{}

func (EchoProvider) Answer(_ context.Context, query, documentContext string) (string, error) {
	if documentContext != "" {
		return fmt.Sprintf("[echo, doc %s] %s", documentContext, query), nil
	}
	return fmt.Sprintf("[echo] %s", query), nil
}

func (EchoProvider) Ping(context.Context) (string, error) {
	return "AI system is working!", nil
}

func (EchoProvider) Model() string {
	return "echo"
}
