package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/models"
	"github.com/itish2003/voicerag/services"
)

// AudioRoute is the path prefix under which rendered answers are served.
const AudioRoute = "/api/v1/audio/"

// RAGController handles the HTTP requests for the voice RAG API. It depends
// on the RAGService for the pipelines and on FileActions to serve audio.
type RAGController struct {
	ragService services.RAGService
	files      *services.FileActions
	log        *slog.Logger
}

// NewRAGController is called from the serve command to inject the service
// dependency.
func NewRAGController(service services.RAGService, files *services.FileActions) *RAGController {
	return &RAGController{
		ragService: service,
		files:      files,
		log:        logger.For("CONTROLLER"),
	}
}

// Register mounts the API routes on router.
func (c *RAGController) Register(router gin.IRouter) {
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/ingest", c.IngestSite)    // Crawl a site and index its pages
		apiV1.POST("/query", c.Query)          // Ask a question, get text + audio
		apiV1.GET("/audio/:id", c.Audio)       // Download (and consume) an audio artifact
		apiV1.GET("/stats", c.CollectionStats) // Number of indexed points
	}
}

// IngestSite is the Gin handler for POST /api/v1/ingest.
func (c *RAGController) IngestSite(ctx *gin.Context) {
	var req models.IngestSiteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if u, err := url.ParseRequestURI(req.SourceURL); err != nil || u.Host == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "source_url must be an absolute URL"})
		return
	}
	if req.PageLimit < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "page_limit must not be negative"})
		return
	}

	indexed, err := c.ragService.IngestSite(ctx.Request.Context(), req, nil)
	if err != nil {
		c.log.Error("ingest failed", "url", req.SourceURL, "indexed", indexed, "error", err)
		ctx.JSON(ingestHTTPStatus(err), models.IngestSiteResponse{
			Status:  services.StatusFor(err),
			Message: err.Error(),
			Indexed: indexed,
		})
		return
	}

	ctx.JSON(http.StatusCreated, models.IngestSiteResponse{Status: models.StatusOK, Indexed: indexed})
}

// Query is the Gin handler for POST /api/v1/query. A successful result
// carries an audio_url the client fetches exactly once.
func (c *RAGController) Query(ctx *gin.Context) {
	var req models.QueryTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query must not be blank"})
		return
	}
	if req.Voice != "" {
		if _, err := models.ParseVoice(req.Voice); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.K < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "k must not be negative"})
		return
	}

	result := c.ragService.Query(ctx.Request.Context(), req)
	if result.Response != nil && result.Response.Audio != nil {
		result.AudioURL = AudioRoute + result.Response.Audio.ID
	}
	ctx.JSON(QueryHTTPStatus(result.Status), result)
}

// Audio is the Gin handler for GET /api/v1/audio/:id. The artifact is
// removed once it has been served.
func (c *RAGController) Audio(ctx *gin.Context) {
	artifact, err := c.files.FindAudio(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.Header("Content-Type", artifact.MIMEType)
	ctx.File(artifact.Path)
	if err := artifact.Remove(); err != nil {
		c.log.Warn("could not remove served audio", "id", artifact.ID, "error", err)
	}
}

// CollectionStats is the Gin handler for GET /api/v1/stats.
func (c *RAGController) CollectionStats(ctx *gin.Context) {
	total, err := c.ragService.TotalPoints(ctx.Request.Context())
	if err != nil {
		c.log.Error("count failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count indexed documents"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"points": total})
}

// QueryHTTPStatus maps a query result status onto an HTTP status code.
func QueryHTTPStatus(status string) int {
	switch status {
	case models.StatusOK:
		return http.StatusOK
	case models.StatusNoResults:
		return http.StatusNotFound
	case models.StatusInvalidRequest:
		return http.StatusBadRequest
	case models.StatusGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ingestHTTPStatus reports upstream crawl failures as 502 and everything
// else, including a crawler that is not configured, as a server error.
func ingestHTTPStatus(err error) int {
	var (
		cfgErr   *models.ConfigurationError
		crawlErr *models.CrawlError
	)
	if errors.As(err, &crawlErr) && !errors.As(err, &cfgErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
