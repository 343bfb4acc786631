package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/genai"

	"github.com/itish2003/voicerag/config"
	"github.com/itish2003/voicerag/firecrawl"
	"github.com/itish2003/voicerag/gemini"
	"github.com/itish2003/voicerag/localembed"
	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
	"github.com/itish2003/voicerag/openai"
	"github.com/itish2003/voicerag/services"
	"github.com/itish2003/voicerag/store"
)

var (
	_ services.Embedder    = (*gemini.Embedder)(nil)
	_ services.Embedder    = (*openai.Embedder)(nil)
	_ services.Embedder    = (*localembed.Embedder)(nil)
	_ services.Generator   = (*gemini.Generator)(nil)
	_ services.Generator   = (*openai.Generator)(nil)
	_ services.SpeechModel = (*gemini.Speech)(nil)
	_ services.SpeechModel = (*openai.Speech)(nil)
	_ services.CrawlClient = (*firecrawl.Client)(nil)
	_ services.VectorStore = (*store.MemoryStore)(nil)
	_ services.VectorStore = (*store.BoltStore)(nil)
	_ services.VectorStore = (*store.ChromaStore)(nil)
)

// app is the wired object graph shared by every command.
type app struct {
	rag     services.RAGService
	indexer *services.IndexingService
	files   *services.FileActions
	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// buildApp wires every component from cfg. A provider whose API key is
// missing is replaced by a stub that fails with a ConfigurationError when
// used, so commands that never touch it still run.
func buildApp(ctx context.Context, cfg config.Config, creds config.Credentials) (*app, error) {
	a := &app{}
	w := &wiring{cfg: cfg, creds: creds}

	vs, err := w.store()
	if err != nil {
		return nil, err
	}
	if c, ok := vs.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	files, err := services.NewFileActions(cfg.Speech.ArtifactDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.files = files

	crawlerOpts := []services.CrawlerOption{
		services.WithMinDelay(cfg.Crawl.MinDelay),
		services.WithExcludePaths(cfg.Crawl.ExcludePaths),
		services.WithTimeout(cfg.Timeouts.Crawl),
	}
	if cfg.Crawl.OutputDir != "" {
		archive, err := services.NewFileActions(cfg.Crawl.OutputDir)
		if err != nil {
			a.Close()
			return nil, err
		}
		crawlerOpts = append(crawlerOpts, services.WithDocumentArchive(archive))
	}

	embeddings := services.NewEmbeddingService(w.embedder(ctx), cfg.Timeouts.Embed)
	collection := cfg.VectorStore.Collection

	a.indexer = services.NewIndexingService(embeddings, vs, collection, services.IndexingOptions{
		Workers:      cfg.Ingest.Workers,
		StableIDs:    cfg.Ingest.StableIDs,
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
		StoreTimeout: cfg.Timeouts.Store,
	})

	voice, _ := models.ParseVoice(cfg.Speech.Voice)
	a.rag = services.NewRAGService(services.RAGDependencies{
		Crawler:      services.NewCrawlerService(w.crawlClient(), crawlerOpts...),
		Indexer:      a.indexer,
		Retriever:    services.NewRetrievalService(embeddings, vs, collection, cfg.Retrieve.TopK, cfg.Timeouts.Store),
		Generator:    services.NewResponseGenerator(w.generator(ctx), cfg.Timeouts.Generate),
		Speech:       services.NewSpeechService(w.speech(ctx), files, cfg.Timeouts.Speech),
		Store:        vs,
		Collection:   collection,
		DefaultVoice: voice,
		PageLimit:    cfg.Crawl.PageLimit,
		Formats:      cfg.Crawl.Formats,
	})
	return a, nil
}

type wiring struct {
	cfg    config.Config
	creds  config.Credentials
	genai  *genai.Client
	oa     *openai.Client
	errGen error
	errOA  error
}

func (w *wiring) store() (services.VectorStore, error) {
	switch w.cfg.VectorStore.Provider {
	case "memory":
		return store.NewMemoryStore(), nil
	case "bolt":
		return store.OpenBoltStore(w.cfg.VectorStore.Path)
	case "chroma":
		return store.NewChromaStore(w.cfg.VectorStore.URL)
	default:
		return nil, &models.ConfigurationError{Msg: fmt.Sprintf("unknown vector_store.provider %q", w.cfg.VectorStore.Provider)}
	}
}

func (w *wiring) geminiClient(ctx context.Context) (*genai.Client, error) {
	if w.genai != nil || w.errGen != nil {
		return w.genai, w.errGen
	}
	if err := config.RequireKey(w.creds.GeminiAPIKey, "GEMINI_API_KEY"); err != nil {
		w.errGen = err
		return nil, err
	}
	w.genai, w.errGen = gemini.NewClient(ctx, w.creds.GeminiAPIKey)
	if w.errGen != nil {
		w.errGen = &models.ConfigurationError{Msg: "gemini client", Err: w.errGen}
	}
	return w.genai, w.errGen
}

func (w *wiring) openaiClient() (*openai.Client, error) {
	if w.oa != nil || w.errOA != nil {
		return w.oa, w.errOA
	}
	if err := config.RequireKey(w.creds.OpenAIAPIKey, "OPENAI_API_KEY"); err != nil {
		w.errOA = err
		return nil, err
	}
	w.oa, w.errOA = openai.NewClient(openai.Config{APIKey: w.creds.OpenAIAPIKey})
	return w.oa, w.errOA
}

func (w *wiring) embedder(ctx context.Context) services.Embedder {
	c := w.cfg.Embedding
	switch c.Provider {
	case "local":
		return localembed.New(c.Dimension)
	case "openai":
		client, err := w.openaiClient()
		if err != nil {
			return unavailable{err}
		}
		return openai.NewEmbedder(client, c.Model, c.Dimension)
	default:
		client, err := w.geminiClient(ctx)
		if err != nil {
			return unavailable{err}
		}
		return gemini.NewEmbedder(client, c.Model, c.Dimension)
	}
}

func (w *wiring) generator(ctx context.Context) services.Generator {
	c := w.cfg.Generation
	if c.Provider == "openai" {
		client, err := w.openaiClient()
		if err != nil {
			return unavailable{err}
		}
		return openai.NewGenerator(client, c.Model)
	}
	client, err := w.geminiClient(ctx)
	if err != nil {
		return unavailable{err}
	}
	return gemini.NewGenerator(client, c.Model)
}

func (w *wiring) speech(ctx context.Context) services.SpeechModel {
	c := w.cfg.Speech
	if c.Provider == "gemini" {
		client, err := w.geminiClient(ctx)
		if err != nil {
			return unavailable{err}
		}
		return gemini.NewSpeech(client, c.Model)
	}
	client, err := w.openaiClient()
	if err != nil {
		return unavailable{err}
	}
	return openai.NewSpeech(client, c.Model)
}

func (w *wiring) crawlClient() services.CrawlClient {
	key := w.cfg.Crawl.APIKey
	if key == "" {
		key = w.creds.FirecrawlAPIKey
	}
	client, err := firecrawl.NewClient(firecrawl.Config{
		APIKey:       key,
		BaseURL:      w.cfg.Crawl.BaseURL,
		PollInterval: w.cfg.Crawl.PollInterval,
	})
	if err != nil {
		logger.For("CLI").Debug("crawler unavailable", "error", err)
		return unavailable{err}
	}
	return client
}

// unavailable stands in for a provider that could not be configured.
type unavailable struct{ err error }

func (u unavailable) Embed(context.Context, string) ([]float32, error) { return nil, u.err }

func (u unavailable) Generate(context.Context, string, string) (string, error) { return "", u.err }

func (u unavailable) Synthesize(context.Context, string, models.Voice, string) (models.Audio, error) {
	return models.Audio{}, u.err
}

func (u unavailable) StartCrawl(context.Context, models.CrawlRequest) (*models.CrawlPage, error) {
	return nil, u.err
}

func (u unavailable) NextPage(context.Context, string) (*models.CrawlPage, error) { return nil, u.err }
