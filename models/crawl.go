package models

// CrawlRequest is sent to the crawl service to start a crawl.
type CrawlRequest struct {
	SourceURL string
	PageLimit int
	Formats   []string
}

// CrawlPage is one batch of crawled pages. Next is empty on the last batch.
type CrawlPage struct {
	Data []PageData
	Next string
}

// PageData is a single page as returned by the crawl service. Either body may be empty.
type PageData struct {
	Markdown string
	HTML     string
	Metadata PageMetadata
}

type PageMetadata struct {
	Title       string
	Description string
	Language    string
	SourceURL   string
}
