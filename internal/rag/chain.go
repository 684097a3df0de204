package rag

import (
	"context"
	"log"
	"strings"

	"github.com/familymenu/nutrition-ai/internal/ai"
)

// Retriever returns ranked documents for an embedding vector.
type Retriever interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]Document, error)
}

// Chain is the retrieval-augmented answer path: embed the question, fetch
// supporting documents, compose the prompt, call the LLM. Retrieval is
// best-effort; a retriever outage degrades the answer, not the request.
type Chain struct {
	provider  ai.Provider
	embedder  ai.Embedder
	retriever Retriever
	topK      int
}

func NewChain(provider ai.Provider, embedder ai.Embedder, retriever Retriever) *Chain {
	return &Chain{
		provider:  provider,
		embedder:  embedder,
		retriever: retriever,
		topK:      3,
	}
}

// Answer implements the chat service's Answerer.
func (c *Chain) Answer(ctx context.Context, input, history string) (string, error) {
	docs := c.retrieve(ctx, input)

	var contextStr string
	if len(docs) > 0 {
		parts := make([]string, 0, len(docs))
		for _, d := range docs {
			if d.Text != "" {
				parts = append(parts, "- "+d.Text)
			}
		}
		contextStr = strings.Join(parts, "\n")
	}

	return c.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: chatSystemPrompt(contextStr, history)},
		{Role: "user", Content: input},
	})
}

func (c *Chain) retrieve(ctx context.Context, input string) []Document {
	if c.embedder == nil || c.retriever == nil {
		return nil
	}
	vec, err := c.embedder.Embed(ctx, input)
	if err != nil {
		log.Printf("rag: embed failed, answering without retrieval: %v", err)
		return nil
	}
	docs, err := c.retriever.Query(ctx, vec, c.topK, "")
	if err != nil {
		log.Printf("rag: retrieval failed, answering without context: %v", err)
		return nil
	}
	return docs
}
