package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
)

// pointNamespace seeds deterministic point ids when stable ids are enabled.
var pointNamespace = uuid.MustParse("6f1c1b4e-3a0e-4d8e-9a57-2f4c3c1e8b10")

// IndexingOptions tunes the ingestion pipeline.
type IndexingOptions struct {
	Workers      int           // documents processed in parallel, minimum 1
	StableIDs    bool          // derive point ids from (url, content) instead of random UUIDs
	ChunkSize    int           // 0 keeps one point per document
	ChunkOverlap int           // characters shared by neighbouring chunks
	StoreTimeout time.Duration // per-upsert deadline, 0 disables
}

// IndexingService embeds documents and upserts them into the vector store.
type IndexingService struct {
	embeddings *EmbeddingService
	store      VectorStore
	collection string
	opts       IndexingOptions
	splitter   textsplitter.TextSplitter
	log        *slog.Logger
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(embeddings *EmbeddingService, store VectorStore, collection string, opts IndexingOptions) *IndexingService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &IndexingService{
		embeddings: embeddings,
		store:      store,
		collection: collection,
		opts:       opts,
		splitter:   NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		log:        logger.For("INDEXER"),
	}
}

// EnsureCollection probes the embedding dimension and creates the target
// collection if it does not exist yet.
func (s *IndexingService) EnsureCollection(ctx context.Context) error {
	dim, err := s.embeddings.Probe(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.store.EnsureCollection(ctx, s.collection, dim, models.Cosine); err != nil {
		return fmt.Errorf("ensure collection %q: %w", s.collection, err)
	}
	return nil
}

// PointID returns the identifier for a document. Without stable ids every
// call yields a fresh UUID, so re-ingesting a source duplicates its points.
func PointID(doc models.Document, stable bool) string {
	if !stable {
		return uuid.NewString()
	}
	return uuid.NewSHA1(pointNamespace, []byte(doc.URL+"\x00"+doc.Content)).String()
}

// Ingest embeds and upserts every document and returns how many points were
// written. The first embedding or store error aborts the run; points already
// written stay in the collection. Documents with no content are skipped.
func (s *IndexingService) Ingest(ctx context.Context, docs []models.Document, progress ProgressFunc) (int, error) {
	units, err := s.expand(docs)
	if err != nil {
		return 0, err
	}
	s.log.Info("ingesting documents", "documents", len(docs), "points", len(units), "collection", s.collection)

	var (
		mu      sync.Mutex
		indexed int
	)
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		indexed++
		if progress != nil {
			progress(indexed, len(units))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, doc := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.indexOne(gctx, doc); err != nil {
				return err
			}
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("ingestion aborted", "indexed", indexed, "error", err)
		return indexed, err
	}

	s.log.Info("ingestion finished", "indexed", indexed)
	return indexed, nil
}

func (s *IndexingService) expand(docs []models.Document) ([]models.Document, error) {
	units := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			s.log.Warn("skipping document with empty content", "url", doc.URL)
			continue
		}
		parts, err := SplitDocument(doc, s.splitter)
		if err != nil {
			return nil, err
		}
		units = append(units, parts...)
	}
	return units, nil
}

func (s *IndexingService) indexOne(ctx context.Context, doc models.Document) error {
	vector, err := s.embeddings.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("could not embed document %s: %w", doc.URL, err)
	}

	point := models.IndexPoint{
		ID:      PointID(doc, s.opts.StableIDs),
		Vector:  vector,
		Payload: models.PayloadFor(doc),
	}

	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.store.Upsert(ctx, s.collection, point); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.URL, err)
	}
	s.log.Debug("indexed document", "url", doc.URL, "id", point.ID)
	return nil
}

func (s *IndexingService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StoreTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.StoreTimeout)
	}
	return context.WithCancel(ctx)
}
