package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
)

// ResponseGenerator runs the two generation stages: a grounded answer, then
// delivery instructions for that answer.
type ResponseGenerator struct {
	generator Generator
	timeout   time.Duration
	log       *slog.Logger
}

// NewResponseGenerator creates a generator. A zero timeout disables the per-stage deadline.
func NewResponseGenerator(generator Generator, timeout time.Duration) *ResponseGenerator {
	return &ResponseGenerator{
		generator: generator,
		timeout:   timeout,
		log:       logger.For("GENERATOR"),
	}
}

// BuildQueryContext concatenates each match's source and content with the question.
func BuildQueryContext(query string, matches []models.RetrievalMatch) string {
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "Source: %s\nContent: %s\n\n", m.Document.URL, m.Document.Content)
	}
	fmt.Fprintf(&b, "Question: %s\n\n%s", query, readAloudInstruction)
	return b.String()
}

// Generate runs the answer stage and then the delivery stage. The delivery
// stage is never invoked when the answer stage fails.
func (g *ResponseGenerator) Generate(ctx context.Context, query string, matches []models.RetrievalMatch) (answer, delivery string, err error) {
	answer, err = g.Answer(ctx, query, matches)
	if err != nil {
		return "", "", err
	}
	delivery, err = g.DeliveryInstructions(ctx, answer)
	if err != nil {
		return answer, "", err
	}
	return answer, delivery, nil
}

// Answer produces the text response grounded in matches.
func (g *ResponseGenerator) Answer(ctx context.Context, query string, matches []models.RetrievalMatch) (string, error) {
	return g.run(ctx, models.StageAnswer, answerPersona, BuildQueryContext(query, matches))
}

// DeliveryInstructions describes how answer should be spoken.
func (g *ResponseGenerator) DeliveryInstructions(ctx context.Context, answer string) (string, error) {
	return g.run(ctx, models.StageDelivery, deliveryPersona, answer)
}

func (g *ResponseGenerator) run(ctx context.Context, stage, persona, input string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.generator.Generate(ctx, persona, input)
	if err != nil {
		return "", &models.GenerationError{Stage: stage, Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &models.GenerationError{Stage: stage, Err: errors.New("model returned an empty response")}
	}
	g.log.Debug("generation stage finished", "stage", stage, "took", time.Since(start))
	return out, nil
}
