package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/voicerag/localembed"
	"github.com/itish2003/voicerag/models"
	"github.com/itish2003/voicerag/store"
)

const testCollection = "test-docs"

func newIndexer(t *testing.T, emb Embedder, vs VectorStore, opts IndexingOptions) *IndexingService {
	t.Helper()
	svc := NewIndexingService(NewEmbeddingService(emb, 0), vs, testCollection, opts)
	require.NoError(t, svc.EnsureCollection(context.Background()))
	return svc
}

func docs(n int) []models.Document {
	out := make([]models.Document, n)
	for i := range out {
		out[i] = models.Document{
			Content: fmt.Sprintf("document number %d about topic %d", i, i%3),
			URL:     fmt.Sprintf("https://docs.example.com/page-%d", i),
		}
	}
	return out
}

func TestIngest_IndexesEveryDocument(t *testing.T) {
	vs := store.NewMemoryStore()
	svc := newIndexer(t, localembed.New(32), vs, IndexingOptions{})

	var mu sync.Mutex
	var reports [][2]int
	n, err := svc.Ingest(context.Background(), docs(3), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, reports)

	count, err := vs.Count(context.Background(), testCollection)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIngest_SkipsEmptyDocuments(t *testing.T) {
	vs := store.NewMemoryStore()
	svc := newIndexer(t, localembed.New(16), vs, IndexingOptions{})

	in := append(docs(2), models.Document{Content: "  \n ", URL: "https://docs.example.com/empty"})
	n, err := svc.Ingest(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIngest_StopsAtFirstFailure(t *testing.T) {
	vs := store.NewMemoryStore()
	// call 1 is the probe, so call 3 is the second document
	emb := &fixedEmbedder{dim: 4, failOn: 3}
	svc := newIndexer(t, emb, vs, IndexingOptions{Workers: 1})

	n, err := svc.Ingest(context.Background(), docs(5), nil)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, emb.Calls(), "no document is embedded after the failure")

	count, err := vs.Count(context.Background(), testCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "points written before the failure stay")
}

func TestIngest_DimensionChangeIsFatal(t *testing.T) {
	vs := store.NewMemoryStore()
	emb := &fixedEmbedder{dims: []int{4, 4, 6}}
	svc := newIndexer(t, emb, vs, IndexingOptions{Workers: 1})

	n, err := svc.Ingest(context.Background(), docs(3), nil)
	assert.Equal(t, 1, n)
	var cfgErr *models.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
}

func TestIngest_StableIDsOverwrite(t *testing.T) {
	ctx := context.Background()

	stable := store.NewMemoryStore()
	svc := newIndexer(t, localembed.New(16), stable, IndexingOptions{StableIDs: true})
	_, err := svc.Ingest(ctx, docs(4), nil)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, docs(4), nil)
	require.NoError(t, err)
	count, _ := stable.Count(ctx, testCollection)
	assert.Equal(t, 4, count)

	random := store.NewMemoryStore()
	svc = newIndexer(t, localembed.New(16), random, IndexingOptions{})
	_, err = svc.Ingest(ctx, docs(4), nil)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, docs(4), nil)
	require.NoError(t, err)
	count, _ = random.Count(ctx, testCollection)
	assert.Equal(t, 8, count, "re-ingesting without stable ids duplicates points")
}

func TestIngest_ParallelWorkers(t *testing.T) {
	vs := store.NewMemoryStore()
	svc := newIndexer(t, localembed.New(16), vs, IndexingOptions{Workers: 4})

	n, err := svc.Ingest(context.Background(), docs(25), nil)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestIngest_Chunking(t *testing.T) {
	vs := store.NewMemoryStore()
	svc := newIndexer(t, localembed.New(16), vs, IndexingOptions{ChunkSize: 60, ChunkOverlap: 10})

	long := models.Document{
		Content: strings.Repeat("Widgets are reusable interface components. ", 10),
		URL:     "https://docs.example.com/widgets",
	}
	n, err := svc.Ingest(context.Background(), []models.Document{long}, nil)
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	matches, err := vs.Query(context.Background(), testCollection, make16(), n)
	require.NoError(t, err)
	for _, m := range matches {
		assert.Equal(t, long.URL, m.Document.URL)
		assert.LessOrEqual(t, len(m.Document.Content), 60)
	}
}

func make16() []float32 {
	v := make([]float32, 16)
	v[0] = 1
	return v
}

func TestEnsureCollection_Conflict(t *testing.T) {
	vs := store.NewMemoryStore()
	require.NoError(t, vs.EnsureCollection(context.Background(), testCollection, 8, models.Cosine))

	svc := NewIndexingService(NewEmbeddingService(localembed.New(16), 0), vs, testCollection, IndexingOptions{})
	err := svc.EnsureCollection(context.Background())
	var conflict *models.CollectionConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.StatusConfigurationError, StatusFor(err))
}

func TestPointID(t *testing.T) {
	doc := models.Document{Content: "c", URL: "u"}
	assert.Equal(t, PointID(doc, true), PointID(doc, true))
	assert.NotEqual(t, PointID(doc, true), PointID(models.Document{Content: "c2", URL: "u"}, true))
	assert.NotEqual(t, PointID(doc, false), PointID(doc, false))
}
