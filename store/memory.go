package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/itish2003/voicerag/models"
)

// MemoryStore keeps collections in process memory. It is safe for concurrent
// use and is lost when the process exits.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	info   models.Collection
	order  []string
	points map[string]models.IndexPoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, name string, dim int, metric models.DistanceMetric) error {
	if err := validateRequest(name, dim, metric); err != nil {
		return err
	}
	requested := models.Collection{Name: name, Dimension: dim, Metric: metric}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return checkCollection(c.info, requested)
	}
	s.collections[name] = &memCollection{info: requested, points: make(map[string]models.IndexPoint)}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, point models.IndexPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrCollectionNotFound, collection)
	}
	if point.ID == "" {
		return fmt.Errorf("point id is empty")
	}
	if err := checkVector(c.info, point.Vector); err != nil {
		return err
	}
	if _, exists := c.points[point.ID]; !exists {
		c.order = append(c.order, point.ID)
	}
	vec := make([]float32, len(point.Vector))
	copy(vec, point.Vector)
	point.Vector = vec
	c.points[point.ID] = point
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, vector []float32, k int) ([]models.RetrievalMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, collection)
	}
	if err := checkVector(c.info, vector); err != nil {
		return nil, err
	}
	if k <= 0 || len(c.points) == 0 {
		return []models.RetrievalMatch{}, nil
	}

	points := make([]models.IndexPoint, 0, len(c.order))
	for _, id := range c.order {
		points = append(points, c.points[id])
	}
	return rankTopK(points, vector, k), nil
}

func (s *MemoryStore) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, collection)
	}
	return len(c.points), nil
}
