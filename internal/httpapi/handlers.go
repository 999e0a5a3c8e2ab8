package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/rag"
	"github.com/fyrsmithlabs/ragd/internal/tenant"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// QueryRequest is the request body for POST /api/rag/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// IngestResponse is the response body for document ingestion.
type IngestResponse struct {
	ID string `json:"id"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Results []vectorstore.SearchResult `json:"results"`
}

// HistoryResponse wraps past queries.
type HistoryResponse struct {
	History []rag.HistoryEntry `json:"history"`
}

// DocumentsResponse wraps the document list.
type DocumentsResponse struct {
	Documents []rag.DocumentSummary `json:"documents"`
}

// SuggestedQuestionsResponse wraps the starter question list.
type SuggestedQuestionsResponse struct {
	Questions []string `json:"questions"`
}

// handleQuery answers a question from the tenant's knowledge base.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	answer, err := s.service.Query(c.Request().Context(), req.Question)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, answer)
}

// handleSearch returns ranked matches without answer synthesis.
func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("q")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	results, err := s.service.Search(c.Request().Context(), query, limit)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// handleHistory returns the tenant's recent queries, newest first.
func (s *Server) handleHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	history, err := s.service.History(c.Request().Context(), limit)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, HistoryResponse{History: history})
}

// handleIngest ingests a document from a JSON body.
func (s *Server) handleIngest(c echo.Context) error {
	var req rag.IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	id, err := s.service.Ingest(c.Request().Context(), req)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusCreated, IngestResponse{ID: id})
}

// handleUpload ingests a document from a multipart file upload.
func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}

	id, err := s.service.IngestUpload(c.Request().Context(), fileHeader.Filename, content)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusCreated, IngestResponse{ID: id})
}

// handleListDocuments lists the tenant's documents.
func (s *Server) handleListDocuments(c echo.Context) error {
	docs, err := s.service.Documents(c.Request().Context())
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, DocumentsResponse{Documents: docs})
}

// handleGetDocument fetches one document.
func (s *Server) handleGetDocument(c echo.Context) error {
	doc, err := s.service.Document(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

// handleDeleteDocument removes a document and its derived data.
func (s *Server) handleDeleteDocument(c echo.Context) error {
	if err := s.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return s.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleStats summarizes the tenant's stored state.
func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.service.Stats(c.Request().Context())
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// handleSuggestedQuestions returns starter questions for new tenants.
func (s *Server) handleSuggestedQuestions(c echo.Context) error {
	return c.JSON(http.StatusOK, SuggestedQuestionsResponse{
		Questions: s.service.SuggestedQuestions(),
	})
}

// httpError maps pipeline errors to HTTP status codes. Anything outside the
// client-fault taxonomy is a 500 with the detail kept server-side.
func (s *Server) httpError(err error) error {
	switch {
	case errors.Is(err, rag.ErrValidation), errors.Is(err, tenant.ErrInvalidTenant):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, tenant.ErrMissingTenant):
		return echo.NewHTTPError(http.StatusBadRequest, "tenant header required")
	case errors.Is(err, rag.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, rag.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
