package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when a hosted provider has no API key.
var ErrMissingAPIKey = errors.New("llm api key not configured")

// Options tune a single generation call.
type Options struct {
	Model       string
	Temperature float32
	JSON        bool
}

// Provider is the interface for all text generation backends.
type Provider interface {
	Name() string
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error)
}

// NewProvider picks a provider by name. "gemini" needs an API key; "template"
// or an empty name gives the offline provider.
func NewProvider(name, model, apiKey string) (Provider, error) {
	switch strings.ToLower(name) {
	case "", "template", "offline":
		return TemplateProvider{}, nil
	case "gemini":
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return &GeminiProvider{Model: model, APIKey: apiKey}, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", name)
}

// TemplateProvider answers without a model: it echoes the bullet facts found
// in the prompt under a summary heading. Output is deterministic.
type TemplateProvider struct{}

var _ Provider = TemplateProvider{}

func (TemplateProvider) Name() string { return "template" }

func (TemplateProvider) GenerateResponse(ctx context.Context, prompt string, _ string, _ Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var facts []string
	for _, line := range strings.Split(prompt, "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "- ") {
			facts = append(facts, line)
		}
	}
	if len(facts) == 0 {
		return "", fmt.Errorf("template provider: prompt has no facts")
	}
	return "## Summary\n\n" + strings.Join(facts, "\n") + "\n", nil
}
