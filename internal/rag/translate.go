package rag

import (
	"context"
	"strings"

	"github.com/familymenu/nutrition-ai/internal/ai"
)

// ProviderTranslator translates by prompting a text-generation provider.
type ProviderTranslator struct {
	provider ai.Provider
}

func NewProviderTranslator(provider ai.Provider) *ProviderTranslator {
	return &ProviderTranslator{provider: provider}
}

func (t *ProviderTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	out, err := t.provider.Generate(ctx, TranslationPrompt(text, sourceLang, targetLang))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
