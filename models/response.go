package models

import (
	"errors"
	"os"
)

// Query outcome statuses.
const (
	StatusOK                 = "ok"
	StatusNoResults          = "no_results"
	StatusGenerationFailed   = "generation_failed"
	StatusConfigurationError = "configuration_error"
	StatusInvalidRequest     = "invalid_request"
	StatusFailed             = "failed"
)

// AudioArtifact is a rendered answer written to disk. The caller owns it and
// must call Remove once the audio has been consumed.
type AudioArtifact struct {
	ID       string `json:"id"`
	Path     string `json:"-"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Remove deletes the artifact file. Removing twice is not an error.
func (a *AudioArtifact) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// AssistantResponse is the terminal output of one query.
type AssistantResponse struct {
	TextResponse         string         `json:"text_response"`
	DeliveryInstructions string         `json:"delivery_instructions"`
	Audio                *AudioArtifact `json:"audio,omitempty"`
	Sources              []string       `json:"sources"`
}

// QueryResult is the structured result of the query pipeline.
type QueryResult struct {
	Status   string             `json:"status"`
	Message  string             `json:"message,omitempty"`
	Response *AssistantResponse `json:"response,omitempty"`
	AudioURL string             `json:"audio_url,omitempty"`
}

type IngestSiteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Indexed int    `json:"indexed"`
}
