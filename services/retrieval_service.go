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

// DefaultTopK is used when a caller asks for k <= 0.
const DefaultTopK = 3

// RetrievalService finds the documents most similar to a query, using the
// same EmbeddingService that indexed them.
type RetrievalService struct {
	embeddings   *EmbeddingService
	store        VectorStore
	collection   string
	defaultK     int
	storeTimeout time.Duration
	log          *slog.Logger
}

// NewRetrievalService creates a retrieval service over collection.
func NewRetrievalService(embeddings *EmbeddingService, store VectorStore, collection string, defaultK int, storeTimeout time.Duration) *RetrievalService {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &RetrievalService{
		embeddings:   embeddings,
		store:        store,
		collection:   collection,
		defaultK:     defaultK,
		storeTimeout: storeTimeout,
		log:          logger.For("RETRIEVER"),
	}
}

// Retrieve returns up to k matches for query, best first. An empty result is
// a NoResultsError rather than an empty slice.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", models.ErrInvalidRequest)
	}
	if k <= 0 {
		k = s.defaultK
	}

	vector, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}
	matches, err := s.store.Query(ctx, s.collection, vector, k)
	if errors.Is(err, models.ErrCollectionNotFound) {
		// Nothing has been ingested yet.
		return nil, &models.NoResultsError{Query: query}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", s.collection, err)
	}
	if len(matches) == 0 {
		return nil, &models.NoResultsError{Query: query}
	}

	s.log.Debug("retrieved documents", "count", len(matches), "top_score", matches[0].Score)
	return matches, nil
}
