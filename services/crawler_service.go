package services

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/time/rate"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
)

// DefaultFormats are requested when the caller passes none.
var DefaultFormats = []string{"markdown", "html"}

const defaultLanguage = "en"

// CrawlerService fetches a site through a CrawlClient and normalizes every
// page into a Document. Batches are fetched strictly in sequence; at least
// minDelay passes between the end of one fetch and the start of the next.
type CrawlerService struct {
	client   CrawlClient
	minDelay time.Duration
	files    *FileActions
	exclude  []string
	timeout  time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// CrawlerOption configures a CrawlerService.
type CrawlerOption func(*CrawlerService)

// WithMinDelay sets the minimum delay between batch fetches.
func WithMinDelay(d time.Duration) CrawlerOption {
	return func(s *CrawlerService) { s.minDelay = d }
}

// WithDocumentArchive persists every crawled document through files.
func WithDocumentArchive(files *FileActions) CrawlerOption {
	return func(s *CrawlerService) { s.files = files }
}

// WithExcludePaths drops pages whose URL path matches any doublestar pattern.
func WithExcludePaths(patterns []string) CrawlerOption {
	return func(s *CrawlerService) { s.exclude = patterns }
}

// WithTimeout bounds a whole crawl, including every pagination fetch.
func WithTimeout(d time.Duration) CrawlerOption {
	return func(s *CrawlerService) { s.timeout = d }
}

// WithClock overrides the crawl timestamp source.
func WithClock(now func() time.Time) CrawlerOption {
	return func(s *CrawlerService) { s.now = now }
}

// NewCrawlerService creates a crawler with a one second default delay.
func NewCrawlerService(client CrawlClient, opts ...CrawlerOption) *CrawlerService {
	s := &CrawlerService{
		client:   client,
		minDelay: time.Second,
		now:      time.Now,
		log:      logger.For("CRAWLER"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crawl fetches up to pageLimit pages from sourceURL, following the
// pagination cursor until the service stops returning one. URLs are not
// deduplicated across batches.
func (s *CrawlerService) Crawl(ctx context.Context, sourceURL string, pageLimit int, formats []string) ([]models.Document, error) {
	if _, err := url.ParseRequestURI(sourceURL); err != nil {
		return nil, &models.ConfigurationError{Msg: "invalid source url " + sourceURL, Err: err}
	}
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.log.Info("starting crawl", "url", sourceURL, "page_limit", pageLimit)
	page, err := s.client.StartCrawl(ctx, models.CrawlRequest{
		SourceURL: sourceURL,
		PageLimit: pageLimit,
		Formats:   formats,
	})
	if err != nil {
		return nil, &models.CrawlError{URL: sourceURL, Err: err}
	}

	var docs []models.Document
	batches := 1
	for {
		docs = append(docs, s.toDocuments(page, sourceURL)...)
		if page.Next == "" {
			break
		}

		if err := s.pause(ctx); err != nil {
			return nil, &models.CrawlError{URL: page.Next, Err: err}
		}
		next := page.Next
		page, err = s.client.NextPage(ctx, next)
		if err != nil {
			return nil, &models.CrawlError{URL: next, Err: err}
		}
		batches++
	}

	s.log.Info("crawl finished", "url", sourceURL, "documents", len(docs), "batches", batches)
	return docs, nil
}

// pause blocks for minDelay counted from now. The limiter starts with its only
// token spent, so a slow fetch does not pre-pay the next wait.
func (s *CrawlerService) pause(ctx context.Context) error {
	if s.minDelay <= 0 {
		return nil
	}
	limiter := rate.NewLimiter(rate.Every(s.minDelay), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}

func (s *CrawlerService) toDocuments(page *models.CrawlPage, sourceURL string) []models.Document {
	docs := make([]models.Document, 0, len(page.Data))
	for _, p := range page.Data {
		doc := s.toDocument(p, sourceURL)
		if s.excluded(doc.URL) {
			s.log.Debug("skipping excluded page", "url", doc.URL)
			continue
		}
		if s.files != nil {
			if _, err := s.files.WriteDocument(doc); err != nil {
				s.log.Warn("could not archive crawled document", "url", doc.URL, "error", err)
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func (s *CrawlerService) toDocument(p models.PageData, sourceURL string) models.Document {
	pageURL := p.Metadata.SourceURL
	if pageURL == "" {
		pageURL = sourceURL
	}
	language := p.Metadata.Language
	if language == "" {
		language = defaultLanguage
	}
	return models.Document{
		Content: ExtractPageContent(p),
		URL:     pageURL,
		Metadata: models.DocumentMetadata{
			Title:       p.Metadata.Title,
			Description: p.Metadata.Description,
			Language:    language,
			CrawlDate:   s.now().UTC(),
		},
	}
}

func (s *CrawlerService) excluded(pageURL string) bool {
	if len(s.exclude) == 0 {
		return false
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range s.exclude {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
