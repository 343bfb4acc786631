package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
)

// SpeechService renders text with a SpeechModel and writes the audio to a
// uniquely named artifact.
type SpeechService struct {
	model   SpeechModel
	files   *FileActions
	timeout time.Duration
	log     *slog.Logger
}

// NewSpeechService creates a speech service writing artifacts through files.
func NewSpeechService(model SpeechModel, files *FileActions, timeout time.Duration) *SpeechService {
	return &SpeechService{
		model:   model,
		files:   files,
		timeout: timeout,
		log:     logger.For("SPEECH"),
	}
}

// Synthesize speaks text in voice, guided by instructions. The caller owns
// the returned artifact.
func (s *SpeechService) Synthesize(ctx context.Context, text string, voice models.Voice, instructions string) (*models.AudioArtifact, error) {
	if !voice.Valid() {
		return nil, &models.SynthesisError{Voice: voice, Err: fmt.Errorf("%w: %q", models.ErrInvalidVoice, voice)}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	audio, err := s.model.Synthesize(ctx, text, voice, instructions)
	if err != nil {
		return nil, &models.SynthesisError{Voice: voice, Err: err}
	}
	artifact, err := s.files.WriteAudio(audio)
	if err != nil {
		return nil, &models.SynthesisError{Voice: voice, Err: err}
	}
	s.log.Info("audio artifact written", "id", artifact.ID, "bytes", artifact.Size)
	return artifact, nil
}
