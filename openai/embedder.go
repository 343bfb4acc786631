package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Embedder calls /embeddings with one input per request.
type Embedder struct {
	client     *Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbedder returns an embedder for model. dimensions is only sent to the
// text-embedding-3 family, which supports shortening.
func NewEmbedder(client *Client, model string, dimensions int) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model, dimensions: dimensions}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := embeddingRequest{Model: e.model, Input: []string{text}}
	if strings.HasPrefix(e.model, "text-embedding-3") && e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	body, err := e.client.post(ctx, "/embeddings", req)
	if err != nil {
		return nil, err
	}
	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: no embedding returned")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
