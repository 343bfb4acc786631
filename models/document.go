package models

import "time"

// Document is a single crawled page, normalized and ready for indexing.
type Document struct {
	Content  string           `json:"content"`
	URL      string           `json:"url"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata carries the page metadata reported by the crawl service.
type DocumentMetadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	CrawlDate   time.Time `json:"crawl_date"`
}

// Payload is what the vector store keeps next to every vector.
type Payload struct {
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	CrawlDate   time.Time `json:"crawl_date"`
}

// PayloadFor flattens a document into the payload stored with its point.
func PayloadFor(doc Document) Payload {
	return Payload{
		Content:     doc.Content,
		URL:         doc.URL,
		Title:       doc.Metadata.Title,
		Description: doc.Metadata.Description,
		Language:    doc.Metadata.Language,
		CrawlDate:   doc.Metadata.CrawlDate,
	}
}

// IndexPoint is one (id, vector, payload) record in a collection.
type IndexPoint struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// DistanceMetric names the similarity function of a collection.
type DistanceMetric string

const (
	Cosine DistanceMetric = "cosine"
)

// Collection identifies a named, dimension-typed set of points.
type Collection struct {
	Name      string         `json:"name"`
	Dimension int            `json:"dimension"`
	Metric    DistanceMetric `json:"metric"`
}

// RetrievalMatch is a single nearest-neighbour hit. Higher scores are more similar.
type RetrievalMatch struct {
	Document Payload `json:"document"`
	Score    float64 `json:"score"`
}
