package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// PineconeClient is a minimal query client for a serverless Pinecone index.
// Index management and document ingestion happen out-of-band.
type PineconeClient struct {
	Host   string
	APIKey string
	Client *http.Client
}

type Document struct {
	ID    string
	Score float32
	Text  string
}

func NewPineconeClient(host, apiKey string) *PineconeClient {
	return &PineconeClient{
		Host:   host,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type pineconeQueryReq struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace,omitempty"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type pineconeQueryResp struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float32           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
	Message string `json:"message,omitempty"`
}

// Query runs a similarity search and returns the ranked matches with their
// text metadata.
func (p *PineconeClient) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]Document, error) {
	if p.Client == nil {
		return nil, errors.New("pinecone: http client is nil")
	}
	if p.Host == "" {
		return nil, errors.New("pinecone: index host is required")
	}
	if topK <= 0 {
		topK = 3
	}

	b, err := json.Marshal(pineconeQueryReq{
		Vector:          vector,
		TopK:            topK,
		Namespace:       namespace,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/query", p.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded pineconeQueryResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decoded.Message != "" {
			return nil, fmt.Errorf("pinecone: %s", decoded.Message)
		}
		return nil, fmt.Errorf("pinecone: status %d", resp.StatusCode)
	}

	docs := make([]Document, 0, len(decoded.Matches))
	for _, m := range decoded.Matches {
		docs = append(docs, Document{
			ID:    m.ID,
			Score: m.Score,
			Text:  m.Metadata["text"],
		})
	}
	return docs, nil
}
