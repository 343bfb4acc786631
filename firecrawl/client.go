// Package firecrawl is a client for the Firecrawl v1 crawl API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itish2003/voicerag/models"
)

const (
	DefaultBaseURL      = "https://api.firecrawl.dev"
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 60 * time.Second
)

// Config holds the client settings.
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client starts crawl jobs and pages through their results. A crawl job is
// asynchronous upstream: StartCrawl submits it and polls until it finishes,
// then returns the first batch.
type Client struct {
	http         *http.Client
	baseURL      *url.URL
	apiKey       string
	pollInterval time.Duration
}

type crawlRequest struct {
	URL           string        `json:"url"`
	Limit         int           `json:"limit,omitempty"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

type crawlStarted struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	URL     string `json:"url"`
	Error   string `json:"error,omitempty"`
}

type crawlStatus struct {
	Status    string     `json:"status"`
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Next      string     `json:"next,omitempty"`
	Data      []pageData `json:"data"`
	Error     string     `json:"error,omitempty"`
}

type pageData struct {
	Markdown string       `json:"markdown"`
	HTML     string       `json:"html"`
	Metadata pageMetadata `json:"metadata"`
}

type pageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	SourceURL   string `json:"sourceURL"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &models.ConfigurationError{Msg: "firecrawl API key is required"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &models.ConfigurationError{Msg: "invalid firecrawl base url " + cfg.BaseURL, Err: err}
	}
	return &Client{
		http:         &http.Client{Timeout: cfg.Timeout},
		baseURL:      base,
		apiKey:       cfg.APIKey,
		pollInterval: cfg.PollInterval,
	}, nil
}

// StartCrawl submits a crawl job and blocks until it leaves the scraping
// state, returning its first batch of pages.
func (c *Client) StartCrawl(ctx context.Context, req models.CrawlRequest) (*models.CrawlPage, error) {
	var started crawlStarted
	err := c.do(ctx, http.MethodPost, c.baseURL.String()+"/v1/crawl", crawlRequest{
		URL:           req.SourceURL,
		Limit:         req.PageLimit,
		ScrapeOptions: scrapeOptions{Formats: req.Formats},
	}, &started)
	if err != nil {
		return nil, fmt.Errorf("start crawl: %w", err)
	}
	if !started.Success || started.ID == "" {
		return nil, fmt.Errorf("start crawl: rejected: %s", started.Error)
	}

	statusURL := c.baseURL.String() + "/v1/crawl/" + url.PathEscape(started.ID)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		status, err := c.fetchStatus(ctx, statusURL)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case "completed":
			return toPage(status), nil
		case "failed", "cancelled":
			return nil, fmt.Errorf("crawl %s %s: %s", started.ID, status.Status, status.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// NextPage fetches the batch behind a pagination cursor returned in a
// previous page.
func (c *Client) NextPage(ctx context.Context, cursor string) (*models.CrawlPage, error) {
	next, err := c.resolve(cursor)
	if err != nil {
		return nil, err
	}
	status, err := c.fetchStatus(ctx, next)
	if err != nil {
		return nil, err
	}
	return toPage(status), nil
}

func (c *Client) fetchStatus(ctx context.Context, statusURL string) (*crawlStatus, error) {
	var status crawlStatus
	if err := c.do(ctx, http.MethodGet, statusURL, nil, &status); err != nil {
		return nil, fmt.Errorf("crawl status: %w", err)
	}
	return &status, nil
}

// resolve turns a cursor into an absolute URL on the configured host.
// Relative cursors are resolved against the base URL.
func (c *Client) resolve(cursor string) (string, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	u = c.baseURL.ResolveReference(u)
	if u.Host != c.baseURL.Host {
		return "", fmt.Errorf("cursor %q points outside %s", cursor, c.baseURL.Host)
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firecrawl returned status %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toPage(status *crawlStatus) *models.CrawlPage {
	page := &models.CrawlPage{Next: status.Next, Data: make([]models.PageData, 0, len(status.Data))}
	for _, d := range status.Data {
		page.Data = append(page.Data, models.PageData{
			Markdown: d.Markdown,
			HTML:     d.HTML,
			Metadata: models.PageMetadata{
				Title:       d.Metadata.Title,
				Description: d.Metadata.Description,
				Language:    d.Metadata.Language,
				SourceURL:   d.Metadata.SourceURL,
			},
		})
	}
	return page
}
