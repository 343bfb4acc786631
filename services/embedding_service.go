package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
)

// probeText is embedded once at setup to discover the model's dimension.
const probeText = "test"

// EmbeddingService wraps an Embedder and enforces a single vector dimension
// for the life of the process.
type EmbeddingService struct {
	embedder Embedder
	timeout  time.Duration
	log      *slog.Logger

	mu  sync.RWMutex
	dim int
}

// NewEmbeddingService creates an EmbeddingService. A zero timeout disables the
// per-call deadline.
func NewEmbeddingService(embedder Embedder, timeout time.Duration) *EmbeddingService {
	return &EmbeddingService{
		embedder: embedder,
		timeout:  timeout,
		log:      logger.For("EMBEDDING"),
	}
}

// Probe embeds a sentinel input and fixes the dimension. Later calls return
// the recorded dimension without contacting the model.
func (s *EmbeddingService) Probe(ctx context.Context) (int, error) {
	if dim := s.Dimension(); dim > 0 {
		return dim, nil
	}
	vec, err := s.Embed(ctx, probeText)
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	s.log.Info("probed embedding dimension", "dimension", len(vec))
	return len(vec), nil
}

// Dimension returns the fixed dimension, or 0 before the first embedding.
func (s *EmbeddingService) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Embed returns the vector for text. The first vector fixes the dimension;
// any later vector of a different length is a ConfigurationError.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vec) == 0 {
		return nil, &models.ConfigurationError{Msg: "embedding model returned an empty vector"}
	}

	if err := s.checkDimension(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

func (s *EmbeddingService) checkDimension(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = n
		return nil
	}
	if s.dim != n {
		return &models.ConfigurationError{
			Msg: fmt.Sprintf("expected %d dimensions, got %d", s.dim, n),
			Err: models.ErrDimensionMismatch,
		}
	}
	return nil
}
