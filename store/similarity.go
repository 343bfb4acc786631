// Package store contains the vector store backends: an in-process map, a
// bbolt file and a Chroma server.
package store

import (
	"fmt"
	"math"
	"sort"

	"github.com/itish2003/voicerag/models"
)

// cosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero length.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankTopK scores every point against query and returns the best k, highest first.
func rankTopK(points []models.IndexPoint, query []float32, k int) []models.RetrievalMatch {
	matches := make([]models.RetrievalMatch, 0, len(points))
	for _, p := range points {
		score := cosineSimilarity(query, p.Vector)
		if math.IsNaN(score) {
			continue
		}
		matches = append(matches, models.RetrievalMatch{Document: p.Payload, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

func checkCollection(existing, requested models.Collection) error {
	if existing.Dimension != requested.Dimension || existing.Metric != requested.Metric {
		return &models.CollectionConflictError{Name: requested.Name, Existing: existing, Requested: requested}
	}
	return nil
}

func checkVector(c models.Collection, vector []float32) error {
	if len(vector) != c.Dimension {
		return fmt.Errorf("collection %q: %w: expected %d, got %d",
			c.Name, models.ErrDimensionMismatch, c.Dimension, len(vector))
	}
	return nil
}

func validateRequest(name string, dim int, metric models.DistanceMetric) error {
	if name == "" {
		return &models.ConfigurationError{Msg: "collection name is empty"}
	}
	if dim <= 0 {
		return &models.ConfigurationError{Msg: fmt.Sprintf("collection %q: dimension must be positive, got %d", name, dim)}
	}
	if metric != models.Cosine {
		return &models.ConfigurationError{Msg: fmt.Sprintf("collection %q: unsupported distance metric %q", name, metric)}
	}
	return nil
}
