package services

import (
	"context"

	"github.com/itish2003/voicerag/models"
)

// Embedder maps text to a vector. Implementations must be deterministic and
// use the same model for documents and queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore holds named collections of points under a fixed distance metric.
type VectorStore interface {
	// EnsureCollection creates the collection if absent. It is a no-op when an
	// identical collection exists and fails with CollectionConflictError when
	// the existing one has a different dimension or metric.
	EnsureCollection(ctx context.Context, name string, dim int, metric models.DistanceMetric) error

	// Upsert inserts or replaces a point by ID.
	Upsert(ctx context.Context, collection string, point models.IndexPoint) error

	// Query returns up to k matches ordered by descending similarity. An empty
	// collection yields an empty slice.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]models.RetrievalMatch, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)
}

// CrawlClient talks to the upstream crawl service.
type CrawlClient interface {
	StartCrawl(ctx context.Context, req models.CrawlRequest) (*models.CrawlPage, error)
	NextPage(ctx context.Context, cursor string) (*models.CrawlPage, error)
}

// Generator is a single request/response call against a language model.
type Generator interface {
	Generate(ctx context.Context, instructions, input string) (string, error)
}

// SpeechModel renders text to audio. instructions steer prosody only; the
// spoken words are always text.
type SpeechModel interface {
	Synthesize(ctx context.Context, text string, voice models.Voice, instructions string) (models.Audio, error)
}

// ProgressFunc reports ingestion progress.
type ProgressFunc func(done, total int)
