package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator runs one GenerateContent call per request with the instructions
// passed as the system instruction.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{client: client, model: model}
}

func (g *Generator) Generate(ctx context.Context, instructions, input string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if instructions != "" {
		cfg.SystemInstruction = genai.Text(instructions)[0]
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(input), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return textOf(resp), nil
}
