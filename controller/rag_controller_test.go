package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/voicerag/models"
	"github.com/itish2003/voicerag/services"
)

type fakeRAG struct {
	ingested  int
	ingestErr error
	result    *models.QueryResult
	points    int
	lastQuery models.QueryTextRequest
	lastSite  models.IngestSiteRequest
}

func (f *fakeRAG) IngestSite(_ context.Context, req models.IngestSiteRequest, _ services.ProgressFunc) (int, error) {
	f.lastSite = req
	return f.ingested, f.ingestErr
}

func (f *fakeRAG) Query(_ context.Context, req models.QueryTextRequest) *models.QueryResult {
	f.lastQuery = req
	return f.result
}

func (f *fakeRAG) TotalPoints(context.Context) (int, error) { return f.points, nil }

func setup(t *testing.T, rag *fakeRAG) (*gin.Engine, *services.FileActions) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	files, err := services.NewFileActions(t.TempDir())
	require.NoError(t, err)
	router := gin.New()
	NewRAGController(rag, files).Register(router)
	return router, files
}

func do(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestSite(t *testing.T) {
	rag := &fakeRAG{ingested: 4}
	router, _ := setup(t, rag)

	w := do(router, http.MethodPost, "/api/v1/ingest", gin.H{"source_url": "https://docs.example.com", "page_limit": 3})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.IngestSiteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusOK, resp.Status)
	assert.Equal(t, 4, resp.Indexed)
	assert.Equal(t, 3, rag.lastSite.PageLimit)
}

func TestIngestSite_BadRequest(t *testing.T) {
	router, _ := setup(t, &fakeRAG{})

	cases := []any{
		gin.H{},
		gin.H{"source_url": "docs.example.com"},
		gin.H{"source_url": "https://docs.example.com", "page_limit": -1},
	}
	for _, body := range cases {
		w := do(router, http.MethodPost, "/api/v1/ingest", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestIngestSite_CrawlFailure(t *testing.T) {
	rag := &fakeRAG{ingestErr: &models.CrawlError{URL: "https://x.test", Err: errors.New("boom")}}
	router, _ := setup(t, rag)

	w := do(router, http.MethodPost, "/api/v1/ingest", gin.H{"source_url": "https://x.test"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "boom")
}

func TestQuery_StatusMapping(t *testing.T) {
	cases := map[string]int{
		models.StatusOK:                 http.StatusOK,
		models.StatusNoResults:          http.StatusNotFound,
		models.StatusGenerationFailed:   http.StatusBadGateway,
		models.StatusConfigurationError: http.StatusInternalServerError,
		models.StatusFailed:             http.StatusInternalServerError,
		models.StatusInvalidRequest:     http.StatusBadRequest,
	}
	for status, code := range cases {
		t.Run(status, func(t *testing.T) {
			router, _ := setup(t, &fakeRAG{result: &models.QueryResult{Status: status}})
			w := do(router, http.MethodPost, "/api/v1/query", gin.H{"query": "hello"})
			assert.Equal(t, code, w.Code)
		})
	}
}

func TestQuery_AudioURL(t *testing.T) {
	rag := &fakeRAG{result: &models.QueryResult{
		Status: models.StatusOK,
		Response: &models.AssistantResponse{
			TextResponse: "Hi.",
			Audio:        &models.AudioArtifact{ID: "0b6c8a39-9f3e-4d5e-9c39-1d1f0c6a2b11", MIMEType: "audio/mpeg"},
		},
	}}
	router, _ := setup(t, rag)

	w := do(router, http.MethodPost, "/api/v1/query", gin.H{"query": "hello", "voice": "Nova", "k": 2})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "/api/v1/audio/0b6c8a39-9f3e-4d5e-9c39-1d1f0c6a2b11", result.AudioURL)
	assert.Equal(t, 2, rag.lastQuery.K)
	assert.Equal(t, "Nova", rag.lastQuery.Voice)
}

func TestQuery_BadRequest(t *testing.T) {
	router, _ := setup(t, &fakeRAG{result: &models.QueryResult{Status: models.StatusOK}})

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/v1/query", gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/v1/query", gin.H{"query": "q", "voice": "robot"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/v1/query", gin.H{"query": "q", "k": -1}).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/v1/query", gin.H{"query": "  \t "}).Code)
}

func TestAudio_ServedOnceThenRemoved(t *testing.T) {
	router, files := setup(t, &fakeRAG{})
	artifact, err := files.WriteAudio(models.Audio{Data: []byte("ID3audio"), MIMEType: "audio/mpeg", Extension: "mp3"})
	require.NoError(t, err)

	w := do(router, http.MethodGet, AudioRoute+artifact.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ID3audio", w.Body.String())
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))

	_, err = os.Stat(artifact.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	w = do(router, http.MethodGet, AudioRoute+artifact.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAudio_InvalidID(t *testing.T) {
	router, _ := setup(t, &fakeRAG{})
	w := do(router, http.MethodGet, AudioRoute+"not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollectionStats(t *testing.T) {
	router, _ := setup(t, &fakeRAG{points: 12})
	w := do(router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"points":12}`, w.Body.String())
}
