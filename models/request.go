package models

type IngestSiteRequest struct {
	SourceURL string `json:"source_url" binding:"required"`
	PageLimit int    `json:"page_limit"`
}

type QueryTextRequest struct {
	Query string `json:"query" binding:"required"`
	Voice string `json:"voice,omitempty"`
	K     int    `json:"k,omitempty"`
}
