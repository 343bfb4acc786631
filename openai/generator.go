package openai

import (
	"context"
	"encoding/json"
	"fmt"
)

// Generator sends a system message and a user message to /chat/completions.
type Generator struct {
	client *Client
	model  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func NewGenerator(client *Client, model string) *Generator {
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{client: client, model: model}
}

func (g *Generator) Generate(ctx context.Context, instructions, input string) (string, error) {
	req := chatRequest{Model: g.model}
	if instructions != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: instructions})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: input})

	body, err := g.client.post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
