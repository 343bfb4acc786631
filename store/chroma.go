package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/itish2003/voicerag/models"
)

// Collection metadata keys written at creation time.
const (
	metaDimension = "dimension"
	metaMetric    = "distance_metric"
	metaHNSWSpace = "hnsw:space"
)

// ChromaStore keeps collections in a Chroma server via the v2 HTTP API. The
// dimension and metric are recorded in the collection metadata so a second
// EnsureCollection can detect conflicts.
type ChromaStore struct {
	client chromago.Client

	mu          sync.RWMutex
	collections map[string]chromago.Collection
}

// NewChromaStore connects to the Chroma server at baseURL.
func NewChromaStore(baseURL string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	return &ChromaStore{client: client, collections: make(map[string]chromago.Collection)}, nil
}

// Close releases the client.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

func (s *ChromaStore) EnsureCollection(ctx context.Context, name string, dim int, metric models.DistanceMetric) error {
	if err := validateRequest(name, dim, metric); err != nil {
		return err
	}
	requested := models.Collection{Name: name, Dimension: dim, Metric: metric}

	collection, err := s.client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewIntAttribute(metaDimension, int64(dim)),
				chromago.NewStringAttribute(metaMetric, string(metric)),
				chromago.NewStringAttribute(metaHNSWSpace, string(metric)),
				chromago.NewStringAttribute("created_by", "voicerag"),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("get or create chroma collection %q: %w", name, err)
	}

	existing, known := collectionInfo(name, collection.Metadata())
	if known {
		if err := checkCollection(existing, requested); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.collections[name] = collection
	s.mu.Unlock()
	return nil
}

func (s *ChromaStore) Upsert(ctx context.Context, collection string, point models.IndexPoint) error {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}

	metadata := chromago.NewDocumentMetadata(
		chromago.NewStringAttribute("url", point.Payload.URL),
		chromago.NewStringAttribute("title", point.Payload.Title),
		chromago.NewStringAttribute("description", point.Payload.Description),
		chromago.NewStringAttribute("language", point.Payload.Language),
		chromago.NewStringAttribute("crawl_date", point.Payload.CrawlDate.UTC().Format(time.RFC3339)),
	)

	err = col.Upsert(ctx,
		chromago.WithIDs(chromago.DocumentID(point.ID)),
		chromago.WithTexts(point.Payload.Content),
		chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(point.Vector)),
		chromago.WithMetadatas(metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record to chromadb: %w", err)
	}
	return nil
}

func (s *ChromaStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]models.RetrievalMatch, error) {
	if k <= 0 {
		return []models.RetrievalMatch{}, nil
	}
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	count, err := col.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items in collection: %w", err)
	}
	if int(count) == 0 {
		return []models.RetrievalMatch{}, nil
	}
	if k > int(count) {
		k = int(count)
	}

	results, err := col.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	matches := []models.RetrievalMatch{}
	if len(documentGroups) == 0 {
		return matches, nil
	}
	for i, doc := range documentGroups[0] {
		payload := models.Payload{Content: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			payloadFromMetadata(&payload, metadataGroups[0][i])
		}
		score := 0.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			// Chroma reports cosine distance; similarity is its complement.
			score = 1 - float64(distanceGroups[0][i])
		}
		matches = append(matches, models.RetrievalMatch{Document: payload, Score: score})
	}
	return matches, nil
}

func (s *ChromaStore) Count(ctx context.Context, collection string) (int, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return 0, err
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

func (s *ChromaStore) collection(ctx context.Context, name string) (chromago.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	col, err := s.client.GetCollection(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrCollectionNotFound, name, err)
		}
		return nil, fmt.Errorf("failed to get chroma collection %q: %w", name, err)
	}
	s.mu.Lock()
	s.collections[name] = col
	s.mu.Unlock()
	return col, nil
}

// isNotFound reports whether a chroma error means the collection is missing.
// chroma-go surfaces server errors as text, and older servers answer a missing
// collection with a 500 whose message says it "does not exist".
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "notfounderror") ||
		strings.Contains(msg, "404 not found")
}

// toMap converts chroma metadata to a plain map. The metadata types expose no
// generic accessor, so this goes through their JSON form.
func toMap(metadata any) map[string]interface{} {
	out := map[string]interface{}{}
	if metadata == nil {
		return out
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// collectionInfo reads the dimension and metric recorded at creation. known is
// false for collections created by other tools.
func collectionInfo(name string, metadata any) (info models.Collection, known bool) {
	m := toMap(metadata)
	info.Name = name
	dim, ok := m[metaDimension].(float64)
	if !ok {
		return info, false
	}
	info.Dimension = int(dim)
	if metric, ok := m[metaMetric].(string); ok {
		info.Metric = models.DistanceMetric(metric)
	} else {
		info.Metric = models.Cosine
	}
	return info, true
}

func payloadFromMetadata(p *models.Payload, metadata any) {
	m := toMap(metadata)
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	p.URL = str("url")
	p.Title = str("title")
	p.Description = str("description")
	p.Language = str("language")
	if ts, err := time.Parse(time.RFC3339, str("crawl_date")); err == nil {
		p.CrawlDate = ts
	}
}
