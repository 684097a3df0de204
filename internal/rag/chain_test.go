package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/familymenu/nutrition-ai/internal/ai"
)

type recordingProvider struct {
	reply string
	last  []ai.Message
}

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, nil
}

func (p *recordingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return p.reply, nil
}

type fakeEmbedder struct {
	err error
}

func (e fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	_ = ctx
	_ = text
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeRetriever struct {
	docs []Document
	err  error
}

func (r fakeRetriever) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]Document, error) {
	_ = ctx
	_ = vector
	_ = topK
	_ = namespace
	return r.docs, r.err
}

func TestChain_AnswerIncludesRetrievedContext(t *testing.T) {
	prov := &recordingProvider{reply: "ok"}
	chain := NewChain(prov, fakeEmbedder{}, fakeRetriever{docs: []Document{
		{ID: "d1", Score: 0.9, Text: "salmon is rich in omega-3"},
		{ID: "d2", Score: 0.8, Text: "spinach is high in iron"},
	}})

	reply, err := chain.Answer(context.Background(), "User: what should I eat?", "")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(prov.last) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(prov.last))
	}
	system := prov.last[0]
	if system.Role != "system" {
		t.Fatalf("expected system message first, got role=%q", system.Role)
	}
	if !strings.Contains(system.Content, "- salmon is rich in omega-3") ||
		!strings.Contains(system.Content, "- spinach is high in iron") {
		t.Fatalf("expected retrieved docs in system prompt, got:\n%s", system.Content)
	}
	if prov.last[1].Role != "user" || prov.last[1].Content != "User: what should I eat?" {
		t.Fatalf("unexpected user message: %+v", prov.last[1])
	}
}

func TestChain_RetrieverFailureDegradesGracefully(t *testing.T) {
	prov := &recordingProvider{reply: "ok"}
	chain := NewChain(prov, fakeEmbedder{}, fakeRetriever{err: errors.New("index down")})

	if _, err := chain.Answer(context.Background(), "User: hi", "earlier turns"); err != nil {
		t.Fatalf("answer should not fail on retriever outage: %v", err)
	}
	if strings.Contains(prov.last[0].Content, "Tài liệu tham khảo") {
		t.Fatalf("expected no reference section without retrieval, got:\n%s", prov.last[0].Content)
	}
	if !strings.Contains(prov.last[0].Content, "earlier turns") {
		t.Fatalf("expected history in system prompt, got:\n%s", prov.last[0].Content)
	}
}

func TestChain_NoRetrieverConfigured(t *testing.T) {
	prov := &recordingProvider{reply: "ok"}
	chain := NewChain(prov, nil, nil)

	if _, err := chain.Answer(context.Background(), "User: hi", ""); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(prov.last) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(prov.last))
	}
}
