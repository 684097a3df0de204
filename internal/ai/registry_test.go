package ai

import (
	"context"
	"testing"
)

type staticProvider struct{ name string }

func (p *staticProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	_ = ctx
	_ = messages
	return p.name, nil
}

func (p *staticProvider) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return p.name, nil
}

func TestRegistry_DefaultModelFallback(t *testing.T) {
	reg := NewRegistry()

	var built []string
	reg.Register("ollama", "mistral", func(model string) (Provider, error) {
		built = append(built, model)
		return &staticProvider{name: model}, nil
	})

	if _, err := reg.Get("ollama", ""); err != nil {
		t.Fatalf("get with empty model: %v", err)
	}
	if _, err := reg.Get("ollama", "llama3"); err != nil {
		t.Fatalf("get with explicit model: %v", err)
	}
	if len(built) != 2 || built[0] != "mistral" || built[1] != "llama3" {
		t.Fatalf("expected default then explicit model, got %v", built)
	}
}

func TestRegistry_NormalizesNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register("  Gemini ", "gemini-2.0-flash-lite", func(model string) (Provider, error) {
		return &staticProvider{name: model}, nil
	})

	if _, err := reg.Get("gemini", ""); err != nil {
		t.Fatalf("expected normalized lookup to succeed: %v", err)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get("openai", ""); err == nil {
		t.Fatalf("expected an error for an unregistered provider")
	}
}
