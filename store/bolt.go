package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/itish2003/voicerag/models"
)

var (
	metaKey      = []byte("meta")
	pointsBucket = []byte("points")
)

// BoltStore persists collections in a single bbolt file. Each collection is a
// top-level bucket holding a meta record (dimension, metric) and a nested
// points bucket keyed by point id. Queries are brute-force cosine scans.
type BoltStore struct {
	db *bbolt.DB
	mu sync.RWMutex
}

type storedPoint struct {
	Vector  []float32      `json:"v"`
	Payload models.Payload `json:"p"`
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) EnsureCollection(_ context.Context, name string, dim int, metric models.DistanceMetric) error {
	if err := validateRequest(name, dim, metric); err != nil {
		return err
	}
	requested := models.Collection{Name: name, Dimension: dim, Metric: metric}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bbolt.Tx) error {
		if b := tx.Bucket([]byte(name)); b != nil {
			existing, err := readMeta(b)
			if err != nil {
				return err
			}
			return checkCollection(existing, requested)
		}

		b, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return fmt.Errorf("create collection %q: %w", name, err)
		}
		if _, err := b.CreateBucket(pointsBucket); err != nil {
			return err
		}
		meta, err := json.Marshal(requested)
		if err != nil {
			return err
		}
		return b.Put(metaKey, meta)
	})
}

func (s *BoltStore) Upsert(_ context.Context, collection string, point models.IndexPoint) error {
	if point.ID == "" {
		return fmt.Errorf("point id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, info, err := openCollection(tx, collection)
		if err != nil {
			return err
		}
		if err := checkVector(info, point.Vector); err != nil {
			return err
		}
		data, err := json.Marshal(storedPoint{Vector: point.Vector, Payload: point.Payload})
		if err != nil {
			return err
		}
		return b.Bucket(pointsBucket).Put([]byte(point.ID), data)
	})
}

func (s *BoltStore) Query(_ context.Context, collection string, vector []float32, k int) ([]models.RetrievalMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var points []models.IndexPoint
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, info, err := openCollection(tx, collection)
		if err != nil {
			return err
		}
		if err := checkVector(info, vector); err != nil {
			return err
		}
		return b.Bucket(pointsBucket).ForEach(func(key, value []byte) error {
			var sp storedPoint
			if err := json.Unmarshal(value, &sp); err != nil {
				return fmt.Errorf("failed to decode point %q in collection %q: %w", key, collection, err)
			}
			points = append(points, models.IndexPoint{ID: string(key), Vector: sp.Vector, Payload: sp.Payload})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if k <= 0 || len(points) == 0 {
		return []models.RetrievalMatch{}, nil
	}
	return rankTopK(points, vector, k), nil
}

func (s *BoltStore) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, _, err := openCollection(tx, collection)
		if err != nil {
			return err
		}
		n = b.Bucket(pointsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func openCollection(tx *bbolt.Tx, name string) (*bbolt.Bucket, models.Collection, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, models.Collection{}, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	info, err := readMeta(b)
	if err != nil {
		return nil, models.Collection{}, err
	}
	return b, info, nil
}

func readMeta(b *bbolt.Bucket) (models.Collection, error) {
	var info models.Collection
	raw := b.Get(metaKey)
	if raw == nil {
		return info, fmt.Errorf("collection metadata missing")
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, fmt.Errorf("decode collection metadata: %w", err)
	}
	return info, nil
}
