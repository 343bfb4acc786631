package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/voicerag/models"
)

func TestCrawl_FollowsCursorsWithMinDelay(t *testing.T) {
	const minDelay = 40 * time.Millisecond
	client := newPagedCrawl(
		[]models.PageData{page("https://docs.example.com/a", "A")},
		[]models.PageData{page("https://docs.example.com/b", "B")},
		[]models.PageData{page("https://docs.example.com/c", "C")},
		[]models.PageData{page("https://docs.example.com/d", "D"), page("https://docs.example.com/e", "E")},
	)
	crawler := NewCrawlerService(client, WithMinDelay(minDelay))

	docs, err := crawler.Crawl(context.Background(), "https://docs.example.com", 10, nil)
	require.NoError(t, err)

	// 3 cursors -> 4 batches
	assert.Equal(t, []string{"cursor-1", "cursor-2", "cursor-3"}, client.cursors)
	require.Len(t, client.fetches, 4)
	for i := 1; i < len(client.fetches); i++ {
		gap := client.fetches[i].Sub(client.fetches[i-1])
		assert.GreaterOrEqual(t, gap, minDelay-time.Millisecond, "fetch %d came %v after the previous one", i, gap)
	}

	require.Len(t, docs, 5)
	assert.Equal(t, "https://docs.example.com/a", docs[0].URL)
	assert.Equal(t, "https://docs.example.com/e", docs[4].URL)
	assert.Equal(t, DefaultFormats, client.request.Formats)
	assert.Equal(t, 10, client.request.PageLimit)
}

func TestCrawl_DelayCountsFromEndOfSlowFetch(t *testing.T) {
	const minDelay = 50 * time.Millisecond
	client := newPagedCrawl(
		[]models.PageData{page("https://docs.example.com/a", "A")},
		[]models.PageData{page("https://docs.example.com/b", "B")},
		[]models.PageData{page("https://docs.example.com/c", "C")},
	)
	client.latency = 80 * time.Millisecond

	docs, err := NewCrawlerService(client, WithMinDelay(minDelay)).Crawl(context.Background(), "https://docs.example.com", 10, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	require.Len(t, client.fetches, 3)
	require.Len(t, client.done, 3)
	for i := 1; i < len(client.fetches); i++ {
		gap := client.fetches[i].Sub(client.done[i-1])
		assert.GreaterOrEqual(t, gap, minDelay-time.Millisecond, "batch %d started %v after batch %d finished", i+1, gap, i)
	}
}

func TestCrawl_SingleBatch(t *testing.T) {
	client := newPagedCrawl([]models.PageData{page("https://x.test/", "only")})
	docs, err := NewCrawlerService(client, WithMinDelay(time.Hour)).Crawl(context.Background(), "https://x.test", 1, []string{"markdown"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Len(t, client.fetches, 1)
	assert.Equal(t, []string{"markdown"}, client.request.Formats)
}

func TestCrawl_NormalizesPages(t *testing.T) {
	crawled := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	client := newPagedCrawl([]models.PageData{
		{
			HTML:     "<html><head><title>t</title></head><body><h1>Pricing</h1><p>Plans start at $5.</p><script>x()</script></body></html>",
			Metadata: models.PageMetadata{Title: "Pricing", Description: "Plans", SourceURL: "https://x.test/pricing"},
		},
		{
			Markdown: "# Intro",
			HTML:     "<p>ignored</p>",
			Metadata: models.PageMetadata{Language: "de"},
		},
	})
	crawler := NewCrawlerService(client, WithMinDelay(0), WithClock(func() time.Time { return crawled }))

	docs, err := crawler.Crawl(context.Background(), "https://x.test", 5, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Pricing\nPlans start at $5.", docs[0].Content)
	assert.Equal(t, "https://x.test/pricing", docs[0].URL)
	assert.Equal(t, "en", docs[0].Metadata.Language)
	assert.Equal(t, "Plans", docs[0].Metadata.Description)
	assert.Equal(t, crawled.UTC(), docs[0].Metadata.CrawlDate)

	assert.Equal(t, "# Intro", docs[1].Content)
	assert.Equal(t, "https://x.test", docs[1].URL, "missing source url falls back to the crawl root")
	assert.Equal(t, "de", docs[1].Metadata.Language)
}

func TestCrawl_ExcludePaths(t *testing.T) {
	client := newPagedCrawl([]models.PageData{
		page("https://x.test/docs/intro", "keep"),
		page("https://x.test/blog/2024/post", "drop"),
		page("https://x.test/changelog", "drop"),
	})
	crawler := NewCrawlerService(client, WithMinDelay(0), WithExcludePaths([]string{"/blog/**", "/changelog"}))

	docs, err := crawler.Crawl(context.Background(), "https://x.test", 5, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "https://x.test/docs/intro", docs[0].URL)
}

func TestCrawl_ArchivesDocuments(t *testing.T) {
	files, err := NewFileActions(t.TempDir())
	require.NoError(t, err)
	client := newPagedCrawl([]models.PageData{page("https://x.test/a", "A"), page("https://x.test/b", "B")})

	_, err = NewCrawlerService(client, WithMinDelay(0), WithDocumentArchive(files)).Crawl(context.Background(), "https://x.test", 5, nil)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(files.Dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestCrawl_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewCrawlerService(newPagedCrawl(nil)).Crawl(ctx, "not a url", 5, nil)
	var cfgErr *models.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	failing := newPagedCrawl(nil)
	failing.startErr = errors.New("401 unauthorized")
	_, err = NewCrawlerService(failing).Crawl(ctx, "https://x.test", 5, nil)
	var crawlErr *models.CrawlError
	require.True(t, errors.As(err, &crawlErr))
	assert.Equal(t, "https://x.test", crawlErr.URL)

	midway := newPagedCrawl([]models.PageData{page("https://x.test/a", "A")}, []models.PageData{page("https://x.test/b", "B")})
	midway.nextErr = os.ErrDeadlineExceeded
	_, err = NewCrawlerService(midway, WithMinDelay(0)).Crawl(ctx, "https://x.test", 5, nil)
	require.True(t, errors.As(err, &crawlErr))
	assert.Equal(t, "cursor-1", crawlErr.URL)
}

func TestCrawl_CancelledWhileWaiting(t *testing.T) {
	client := newPagedCrawl([]models.PageData{page("https://x.test/a", "A")}, []models.PageData{page("https://x.test/b", "B")})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewCrawlerService(client, WithMinDelay(time.Hour)).Crawl(ctx, "https://x.test", 5, nil)
	var crawlErr *models.CrawlError
	require.True(t, errors.As(err, &crawlErr))
	assert.Len(t, client.fetches, 1)
}
