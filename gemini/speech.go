package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/itish2003/voicerag/models"
)

// prebuiltVoices maps the public voice names onto Gemini's prebuilt voices.
var prebuiltVoices = map[models.Voice]string{
	models.VoiceAlloy: "Puck",
	models.VoiceEcho:  "Charon",
	models.VoiceFable: "Kore",
	models.VoiceOnyx:  "Fenrir",
	models.VoiceNova:  "Aoede",
}

// Speech renders text with a Gemini TTS model. The API returns raw 16-bit
// PCM, which is wrapped in a WAV container.
type Speech struct {
	client *genai.Client
	model  string
}

func NewSpeech(client *genai.Client, model string) *Speech {
	if model == "" {
		model = DefaultSpeechModel
	}
	return &Speech{client: client, model: model}
}

func (s *Speech) Synthesize(ctx context.Context, text string, voice models.Voice, instructions string) (models.Audio, error) {
	name, ok := prebuiltVoices[voice]
	if !ok {
		return models.Audio{}, fmt.Errorf("%w: %q", models.ErrInvalidVoice, voice)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: name},
			},
		},
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(speechPrompt(text, instructions)), cfg)
	if err != nil {
		return models.Audio{}, fmt.Errorf("gemini speech: %w", err)
	}
	blob := inlineDataOf(resp)
	if blob == nil {
		return models.Audio{}, fmt.Errorf("gemini speech: response carried no audio")
	}
	if strings.Contains(blob.MIMEType, "wav") {
		return models.Audio{Data: blob.Data, MIMEType: "audio/wav", Extension: "wav"}, nil
	}
	return models.Audio{Data: PCMToWAV(blob.Data, sampleRateOf(blob.MIMEType)), MIMEType: "audio/wav", Extension: "wav"}, nil
}

// speechPrompt puts the delivery instructions ahead of the words to speak.
// Gemini reads style directions from the prompt itself.
func speechPrompt(text, instructions string) string {
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return text
	}
	return instructions + "\n\nSay the following exactly as written:\n" + text
}
