package openai

import (
	"context"
	"fmt"

	"github.com/itish2003/voicerag/models"
)

// Speech renders mp3 audio through /audio/speech. The voice presets are
// OpenAI's own names, so they pass through unchanged.
type Speech struct {
	client *Client
	model  string
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	Instructions   string `json:"instructions,omitempty"`
	ResponseFormat string `json:"response_format"`
}

func NewSpeech(client *Client, model string) *Speech {
	if model == "" {
		model = DefaultSpeechModel
	}
	return &Speech{client: client, model: model}
}

func (s *Speech) Synthesize(ctx context.Context, text string, voice models.Voice, instructions string) (models.Audio, error) {
	if !voice.Valid() {
		return models.Audio{}, fmt.Errorf("%w: %q", models.ErrInvalidVoice, voice)
	}
	data, err := s.client.post(ctx, "/audio/speech", speechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          string(voice),
		Instructions:   instructions,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return models.Audio{}, err
	}
	if len(data) == 0 {
		return models.Audio{}, fmt.Errorf("openai: empty audio response")
	}
	return models.Audio{Data: data, MIMEType: "audio/mpeg", Extension: "mp3"}, nil
}
