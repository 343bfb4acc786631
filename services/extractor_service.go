package services

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/itish2003/voicerag/models"
)

// ExtractPageContent returns the text to index for a crawled page. Markdown is
// preferred; the HTML body is the fallback and is reduced to readable text.
func ExtractPageContent(page models.PageData) string {
	if md := strings.TrimSpace(page.Markdown); md != "" {
		return md
	}
	if page.HTML != "" {
		return HTMLToText(page.HTML)
	}
	return ""
}

var (
	dropBlocks    = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)\b[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBoundary = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)\b[^>]*>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	runsOfSpace   = regexp.MustCompile(`[ \t]+`)
)

// HTMLToText strips tags, scripts and styles and keeps one line per block element.
func HTMLToText(body string) string {
	body = dropBlocks.ReplaceAllString(body, "")
	body = htmlComments.ReplaceAllString(body, "")
	body = blockBoundary.ReplaceAllString(body, "\n")
	body = anyTag.ReplaceAllString(body, "")
	body = html.UnescapeString(body)
	body = runsOfSpace.ReplaceAllString(body, " ")

	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// NewSplitter returns a recursive character splitter, or nil when chunkSize is 0.
func NewSplitter(chunkSize, chunkOverlap int) textsplitter.TextSplitter {
	if chunkSize <= 0 {
		return nil
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}

// SplitDocument breaks doc into chunk documents sharing its URL and metadata.
// A nil splitter returns the document unchanged.
func SplitDocument(doc models.Document, splitter textsplitter.TextSplitter) ([]models.Document, error) {
	if splitter == nil {
		return []models.Document{doc}, nil
	}
	chunks, err := splitter.SplitText(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", doc.URL, err)
	}
	out := make([]models.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		out = append(out, models.Document{Content: chunk, URL: doc.URL, Metadata: doc.Metadata})
	}
	return out, nil
}
