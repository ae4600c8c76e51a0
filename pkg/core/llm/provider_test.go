package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "template" {
		t.Errorf("expected template provider, got %s", p.Name())
	}

	if _, err := NewProvider("gemini", "", ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	p, err = NewProvider("Gemini", "gemini-2.5-pro", "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g, ok := p.(*GeminiProvider); !ok || g.Model != "gemini-2.5-pro" {
		t.Errorf("expected configured gemini provider, got %#v", p)
	}

	if _, err := NewProvider("gpt", "", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestTemplateProvider(t *testing.T) {
	prompt := "Summarise.\n\n## Facts\n- Break-even in 2031\n- LVR 72.7%\n\nKeep it short."
	got, err := TemplateProvider{}.GenerateResponse(context.Background(), prompt, "", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "## Summary\n\n- Break-even in 2031\n- LVR 72.7%\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := (TemplateProvider{}).GenerateResponse(context.Background(), "no facts", "", Options{}); err == nil {
		t.Error("expected error for prompt without facts")
	}
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	_, err := (&GeminiProvider{}).GenerateResponse(context.Background(), "hi", "", Options{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
