package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-pro"

const pingPrompt = "Hello, this is a test message. Please respond with 'AI system is working!'"

// GeminiProvider answers queries through the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Answer(ctx context.Context, query, documentContext string) (string, error) {
	prompt := fmt.Sprintf("Please answer this query: %s", query)
	if documentContext != "" {
		prompt = fmt.Sprintf("Using the document %q as context, answer this query: %s", documentContext, query)
	}
	return p.generate(ctx, prompt)
}

func (p *GeminiProvider) Ping(ctx context.Context) (string, error) {
	return p.generate(ctx, pingPrompt)
}

func (p *GeminiProvider) Model() string {
	return p.model
}

func (p *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
