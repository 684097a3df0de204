package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a text-generation backend. Chat takes a conversation, Generate
// takes a single raw prompt (used for translation and structured output).
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder is an optional interface. Providers that can produce embedding
// vectors implement it; the retriever needs one.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
