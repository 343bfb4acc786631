package models

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by the typed errors below.
var (
	// ErrDimensionMismatch means a vector's length differs from the probed dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCollectionNotFound is returned by stores when a collection was never created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidVoice means the requested voice is not one of the presets.
	ErrInvalidVoice = errors.New("invalid voice")

	// ErrInvalidRequest marks input the caller has to fix, such as a blank query.
	ErrInvalidRequest = errors.New("invalid request")
)

// ConfigurationError reports missing or invalid credentials, URLs or settings.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CollectionConflictError means an existing collection was created with a
// different dimension or metric than requested.
type CollectionConflictError struct {
	Name      string
	Existing  Collection
	Requested Collection
}

func (e *CollectionConflictError) Error() string {
	return fmt.Sprintf("collection %q exists with dimension=%d metric=%s, requested dimension=%d metric=%s",
		e.Name, e.Existing.Dimension, e.Existing.Metric, e.Requested.Dimension, e.Requested.Metric)
}

// CrawlError wraps an upstream crawl failure.
type CrawlError struct {
	URL string
	Err error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl %s: %v", e.URL, e.Err)
}

func (e *CrawlError) Unwrap() error { return e.Err }

// NoResultsError means retrieval found nothing for the query.
type NoResultsError struct {
	Query string
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no documents matched query %q", e.Query)
}

// Generation stage names.
const (
	StageAnswer   = "answer"
	StageDelivery = "delivery"
)

// GenerationError tags a language-generation failure with its stage.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation stage %q failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// SynthesisError wraps a speech rendering failure.
type SynthesisError struct {
	Voice Voice
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis (voice %s) failed: %v", e.Voice, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
