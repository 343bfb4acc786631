package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
)

// NoInformationMessage is returned to the user when retrieval finds nothing.
const NoInformationMessage = "I don't have information on that yet."

// RAGService interface defines the two pipelines exposed to drivers.
type RAGService interface {
	IngestSite(c context.Context, req models.IngestSiteRequest, progress ProgressFunc) (int, error)
	Query(c context.Context, req models.QueryTextRequest) *models.QueryResult
	TotalPoints(c context.Context) (int, error)
}

// RAGDependencies are the components the pipelines are composed from.
type RAGDependencies struct {
	Crawler      *CrawlerService
	Indexer      *IndexingService
	Retriever    *RetrievalService
	Generator    *ResponseGenerator
	Speech       *SpeechService
	Store        VectorStore
	Collection   string
	DefaultVoice models.Voice
	PageLimit    int
	Formats      []string
}

// ragServiceImpl holds the dependencies it needs to do its job
type ragServiceImpl struct {
	deps RAGDependencies
	log  *slog.Logger
}

// NewRAGService creates a new RAG service instance
func NewRAGService(deps RAGDependencies) RAGService {
	if !deps.DefaultVoice.Valid() {
		deps.DefaultVoice = models.VoiceAlloy
	}
	return &ragServiceImpl{deps: deps, log: logger.For("SERVICE")}
}

// IngestSite crawls req.SourceURL and indexes every page it returns.
func (r *ragServiceImpl) IngestSite(c context.Context, req models.IngestSiteRequest, progress ProgressFunc) (int, error) {
	pageLimit := req.PageLimit
	if pageLimit <= 0 {
		pageLimit = r.deps.PageLimit
	}
	r.log.Info("ingesting site", "url", req.SourceURL, "page_limit", pageLimit)

	if err := r.deps.Indexer.EnsureCollection(c); err != nil {
		return 0, err
	}
	docs, err := r.deps.Crawler.Crawl(c, req.SourceURL, pageLimit, r.deps.Formats)
	if err != nil {
		return 0, err
	}
	return r.deps.Indexer.Ingest(c, docs, progress)
}

// Query runs embed -> retrieve -> answer -> delivery -> speech and reports
// the outcome as a structured result. Speech failures degrade to a text-only
// answer.
func (r *ragServiceImpl) Query(c context.Context, req models.QueryTextRequest) *models.QueryResult {
	r.log.Info("querying", "query", req.Query)

	voice := r.deps.DefaultVoice
	if req.Voice != "" {
		v, err := models.ParseVoice(req.Voice)
		if err != nil {
			return &models.QueryResult{Status: models.StatusInvalidRequest, Message: err.Error()}
		}
		voice = v
	}

	matches, err := r.deps.Retriever.Retrieve(c, req.Query, req.K)
	if err != nil {
		return r.failure(err)
	}

	answer, delivery, err := r.deps.Generator.Generate(c, req.Query, matches)
	if err != nil {
		return r.failure(err)
	}

	resp := &models.AssistantResponse{
		TextResponse:         answer,
		DeliveryInstructions: delivery,
		Sources:              sourcesOf(matches),
	}
	result := &models.QueryResult{Status: models.StatusOK, Response: resp}

	artifact, err := r.deps.Speech.Synthesize(c, answer, voice, delivery)
	if err != nil {
		r.log.Warn("speech synthesis failed, returning text only", "error", err)
		result.Message = "audio unavailable: " + err.Error()
		return result
	}
	resp.Audio = artifact
	return result
}

// TotalPoints counts the points in the target collection. A collection that
// was never created holds zero points.
func (r *ragServiceImpl) TotalPoints(c context.Context) (int, error) {
	count, err := r.deps.Store.Count(c, r.deps.Collection)
	if errors.Is(err, models.ErrCollectionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return count, nil
}

func (r *ragServiceImpl) failure(err error) *models.QueryResult {
	status := StatusFor(err)
	msg := err.Error()
	if status == models.StatusNoResults {
		msg = NoInformationMessage
	}
	r.log.Error("query failed", "status", status, "error", err)
	return &models.QueryResult{Status: status, Message: msg}
}

// StatusFor maps a pipeline error onto a result status. A configuration
// cause wins over the stage that surfaced it.
func StatusFor(err error) string {
	var (
		noResults *models.NoResultsError
		genErr    *models.GenerationError
		cfgErr    *models.ConfigurationError
		conflict  *models.CollectionConflictError
	)
	switch {
	case err == nil:
		return models.StatusOK
	case errors.As(err, &noResults):
		return models.StatusNoResults
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidVoice):
		return models.StatusInvalidRequest
	case errors.As(err, &cfgErr), errors.As(err, &conflict):
		return models.StatusConfigurationError
	case errors.As(err, &genErr):
		return models.StatusGenerationFailed
	default:
		return models.StatusFailed
	}
}

// sourcesOf lists match URLs in rank order, each once.
func sourcesOf(matches []models.RetrievalMatch) []string {
	seen := make(map[string]bool, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Document.URL == "" || seen[m.Document.URL] {
			continue
		}
		seen[m.Document.URL] = true
		sources = append(sources, m.Document.URL)
	}
	return sources
}
