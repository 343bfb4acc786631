package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/voicerag/localembed"
	"github.com/itish2003/voicerag/models"
	"github.com/itish2003/voicerag/store"
)

var corpus = []models.Document{
	{URL: "https://acme.test/pricing", Content: "Acme pricing plans start at five dollars per month for the starter tier."},
	{URL: "https://acme.test/support", Content: "Contact support by email any weekday between nine and five."},
	{URL: "https://acme.test/security", Content: "All customer data is encrypted at rest and in transit."},
}

func indexedRetriever(t *testing.T, docs []models.Document) *RetrievalService {
	t.Helper()
	embeddings := NewEmbeddingService(localembed.New(256), 0)
	vs := store.NewMemoryStore()
	indexer := NewIndexingService(embeddings, vs, testCollection, IndexingOptions{})
	require.NoError(t, indexer.EnsureCollection(context.Background()))
	if len(docs) > 0 {
		_, err := indexer.Ingest(context.Background(), docs, nil)
		require.NoError(t, err)
	}
	return NewRetrievalService(embeddings, vs, testCollection, 3, 0)
}

func TestRetrieve_RanksRelevantDocumentFirst(t *testing.T) {
	retriever := indexedRetriever(t, corpus)

	matches, err := retriever.Retrieve(context.Background(), "how much do the pricing plans cost per month", 2)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.LessOrEqual(t, len(matches), 2)
	assert.Equal(t, "https://acme.test/pricing", matches[0].Document.URL)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRetrieve_SavingsAccountOutranksWireFees(t *testing.T) {
	retriever := indexedRetriever(t, []models.Document{
		{URL: "A", Content: "How to open a savings account: visit a branch with ID."},
		{URL: "B", Content: "Wire transfer fees are $25."},
	})

	matches, err := retriever.Retrieve(context.Background(), "How do I open a savings account?", 3)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "A", matches[0].Document.URL)
	assert.Equal(t, "B", matches[1].Document.URL)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRetrieve_DefaultK(t *testing.T) {
	retriever := indexedRetriever(t, append(corpus, docs(5)...))

	matches, err := retriever.Retrieve(context.Background(), "document about topic", 0)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	retriever := indexedRetriever(t, nil)

	_, err := retriever.Retrieve(context.Background(), "anything at all", 3)
	var noResults *models.NoResultsError
	require.True(t, errors.As(err, &noResults), "got %v", err)
	assert.Equal(t, models.StatusNoResults, StatusFor(err))
}

func TestRetrieve_CollectionNeverCreated(t *testing.T) {
	embeddings := NewEmbeddingService(localembed.New(32), 0)
	retriever := NewRetrievalService(embeddings, store.NewMemoryStore(), "missing", 3, 0)

	_, err := retriever.Retrieve(context.Background(), "anything", 3)
	var noResults *models.NoResultsError
	assert.True(t, errors.As(err, &noResults))
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	retriever := indexedRetriever(t, corpus)
	_, err := retriever.Retrieve(context.Background(), " ", 3)
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	assert.Equal(t, models.StatusInvalidRequest, StatusFor(err))
}

// unreachableStore fails every call the way a store behind a dead connection does.
type unreachableStore struct{}

var errStoreDown = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

func (unreachableStore) EnsureCollection(context.Context, string, int, models.DistanceMetric) error {
	return errStoreDown
}
func (unreachableStore) Upsert(context.Context, string, models.IndexPoint) error { return errStoreDown }
func (unreachableStore) Query(context.Context, string, []float32, int) ([]models.RetrievalMatch, error) {
	return nil, errStoreDown
}
func (unreachableStore) Count(context.Context, string) (int, error) { return 0, errStoreDown }

func TestRetrieve_StoreOutageIsNotNoResults(t *testing.T) {
	embeddings := NewEmbeddingService(localembed.New(32), 0)
	retriever := NewRetrievalService(embeddings, unreachableStore{}, testCollection, 3, 0)

	_, err := retriever.Retrieve(context.Background(), "anything", 3)
	require.ErrorIs(t, err, errStoreDown)
	var noResults *models.NoResultsError
	assert.False(t, errors.As(err, &noResults))
	assert.Equal(t, models.StatusFailed, StatusFor(err))

	rag := NewRAGService(RAGDependencies{Retriever: retriever, Store: unreachableStore{}, Collection: testCollection})
	_, err = rag.TotalPoints(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}
