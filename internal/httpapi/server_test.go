package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
	"github.com/fyrsmithlabs/ragd/internal/docstore"
	"github.com/fyrsmithlabs/ragd/internal/embeddings"
	"github.com/fyrsmithlabs/ragd/internal/objectstore"
	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/retriever"
	"github.com/fyrsmithlabs/ragd/internal/synthesizer"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

func newTestService(t *testing.T) *rag.Service {
	t.Helper()

	ck, err := chunker.New(1000, 200)
	require.NoError(t, err)

	embedder, err := embeddings.NewChain(zap.NewNop(), nil, "test", 64, 0)
	require.NoError(t, err)

	docs, err := docstore.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = docs.Close() })

	objects, err := objectstore.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	keyword := vectorstore.NewKeywordSearcher(rag.KeywordSource{Docs: docs})
	index := vectorstore.NewDegradingIndex(vectorstore.NewMemoryIndex(), keyword, zap.NewNop())

	rt := retriever.New(embedder, index, retriever.Config{}, zap.NewNop())
	synth := synthesizer.New(nil, zap.NewNop())

	return rag.NewService(ck, embedder, index, rt, synth, docs, objects, zap.NewNop())
}

func setupTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	server, err := NewServer(newTestService(t), zap.NewNop(), cfg)
	require.NoError(t, err)
	return server
}

func doJSON(server *Server, method, path, tenantID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tenantID != "" {
		req.Header.Set(TenantHeader, tenantID)
	}
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	return rec
}

func ingestDocument(t *testing.T, server *Server, tenantID, title, content string) string {
	t.Helper()
	rec := doJSON(server, http.MethodPost, "/api/rag/documents", tenantID, map[string]string{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 8080}
		server, err := NewServer(newTestService(t), zap.NewNop(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(newTestService(t), zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 8080, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(newTestService(t), nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when service is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "service cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleMetrics(t *testing.T) {
	server := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIngestAndQuery(t *testing.T) {
	server := setupTestServer(t, nil)

	ingestDocument(t, server, "acme", "GPU Memory Optimization",
		"Use mixed precision training to reduce GPU memory usage.")

	rec := doJSON(server, http.MethodPost, "/api/rag/query", "acme", QueryRequest{
		Question: "how do I reduce gpu memory usage",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var answer synthesizer.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.NotEmpty(t, answer.Text)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "GPU Memory Optimization", answer.Sources[0].Title)
}

func TestQuery_MissingTenant(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(server, http.MethodPost, "/api/rag/query", "", QueryRequest{Question: "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_DefaultTenantFallback(t *testing.T) {
	server := setupTestServer(t, &Config{Host: "localhost", Port: 8080, DefaultTenant: "default-tenant"})

	rec := doJSON(server, http.MethodPost, "/api/rag/query", "", QueryRequest{Question: "anything"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestQuery_EmptyQuestion(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(server, http.MethodPost, "/api/rag/query", "acme", QueryRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_TenantIsolation(t *testing.T) {
	server := setupTestServer(t, nil)

	ingestDocument(t, server, "acme", "Private Runbook", "Mixed precision training reduces memory usage.")

	rec := doJSON(server, http.MethodPost, "/api/rag/query", "globex", QueryRequest{
		Question: "mixed precision training memory",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var answer synthesizer.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Empty(t, answer.Sources)
}

func TestIngest_Validation(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(server, http.MethodPost, "/api/rag/documents", "acme", map[string]string{
		"title": "missing content",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	server := setupTestServer(t, nil)

	docID := ingestDocument(t, server, "acme", "Lifecycle", "Document lifecycle content.")

	rec := doJSON(server, http.MethodGet, "/api/rag/documents", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list DocumentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "Lifecycle", list.Documents[0].Title)

	rec = doJSON(server, http.MethodGet, "/api/rag/documents/"+docID, "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc rag.DocumentDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Document lifecycle content.", doc.Content)

	rec = doJSON(server, http.MethodDelete, "/api/rag/documents/"+docID, "acme", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/rag/documents/"+docID, "acme", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocument_CrossTenantForbidden(t *testing.T) {
	server := setupTestServer(t, nil)

	docID := ingestDocument(t, server, "acme", "mine", "private content")

	rec := doJSON(server, http.MethodDelete, "/api/rag/documents/"+docID, "globex", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/rag/documents/"+docID, "acme", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDocument_CrossTenantNotFound(t *testing.T) {
	server := setupTestServer(t, nil)

	docID := ingestDocument(t, server, "acme", "mine", "private content")

	rec := doJSON(server, http.MethodGet, "/api/rag/documents/"+docID, "globex", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpload(t *testing.T) {
	server := setupTestServer(t, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "runbook-gpu.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("GPU runbook content for upload tests."))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/rag/documents/upload", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(TenantHeader, "acme")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	get := doJSON(server, http.MethodGet, "/api/rag/documents/"+resp.ID, "acme", nil)
	require.Equal(t, http.StatusOK, get.Code)
	var doc rag.DocumentDetail
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &doc))
	assert.Equal(t, "runbook-gpu", doc.Title)
}

func TestHandleUpload_MissingFile(t *testing.T) {
	server := setupTestServer(t, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/rag/documents/upload", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(TenantHeader, "acme")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSearch(t *testing.T) {
	server := setupTestServer(t, nil)

	ingestDocument(t, server, "acme", "Monitoring Setup", "Set up alerts and dashboards.")

	rec := doJSON(server, http.MethodGet, "/api/rag/search?q=monitoring+alerts", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Monitoring Setup", resp.Results[0].Title)

	// Result keys are snake_case like the rest of the API.
	assert.Contains(t, rec.Body.String(), `"similarity_score"`)
	assert.Contains(t, rec.Body.String(), `"content_preview"`)

	rec = doJSON(server, http.MethodGet, "/api/rag/search", "acme", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHistory(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(server, http.MethodPost, "/api/rag/query", "acme", QueryRequest{Question: "first question"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(server, http.MethodPost, "/api/rag/query", "acme", QueryRequest{Question: "second question"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(server, http.MethodGet, "/api/rag/history?limit=10", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, "second question", resp.History[0].Question)

	other := doJSON(server, http.MethodGet, "/api/rag/history", "globex", nil)
	require.Equal(t, http.StatusOK, other.Code)
	var otherResp HistoryResponse
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &otherResp))
	assert.Empty(t, otherResp.History)
}

func TestHandleStats(t *testing.T) {
	server := setupTestServer(t, nil)

	ingestDocument(t, server, "acme", "a", "content a")
	ingestDocument(t, server, "acme", "b", "content b")

	rec := doJSON(server, http.MethodGet, "/api/rag/stats", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats rag.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.DocumentCount)
}

func TestHandleSuggestedQuestions(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(server, http.MethodGet, "/api/rag/suggested-questions", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SuggestedQuestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Questions)
}
