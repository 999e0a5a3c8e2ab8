// Package rag orchestrates the ingestion and query pipeline.
package rag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/chunker"
	"github.com/fyrsmithlabs/ragd/internal/docstore"
	"github.com/fyrsmithlabs/ragd/internal/embeddings"
	"github.com/fyrsmithlabs/ragd/internal/objectstore"
	"github.com/fyrsmithlabs/ragd/internal/retriever"
	"github.com/fyrsmithlabs/ragd/internal/synthesizer"
	"github.com/fyrsmithlabs/ragd/internal/tenant"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

const (
	defaultDocType   = "text"
	previewLength    = 200
	searchLimit      = 10
	historyLimit     = 50
	statsSampleLimit = 1000
)

// Service is the RAG orchestrator. All operations are tenant-scoped via
// the request context and fail closed when the tenant is absent.
type Service struct {
	chunker   *chunker.Chunker
	embedder  *embeddings.Service
	index     *vectorstore.DegradingIndex
	retriever *retriever.Retriever
	synth     *synthesizer.Synthesizer
	docs      *docstore.Store
	objects   *objectstore.Store
	validate  *validator.Validate
	metrics   *Metrics
	logger    *zap.Logger
}

// NewService wires the pipeline. objects may be nil when raw upload
// storage is disabled.
func NewService(
	ck *chunker.Chunker,
	embedder *embeddings.Service,
	index *vectorstore.DegradingIndex,
	rt *retriever.Retriever,
	synth *synthesizer.Synthesizer,
	docs *docstore.Store,
	objects *objectstore.Store,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chunker:   ck,
		embedder:  embedder,
		index:     index,
		retriever: rt,
		synth:     synth,
		docs:      docs,
		objects:   objects,
		validate:  validator.New(),
		metrics:   newMetrics(),
		logger:    logger,
	}
}

// KeywordSource adapts the document store to the keyword search interface.
type KeywordSource struct {
	Docs *docstore.Store
}

// DocumentsByTenant lists a tenant's documents for keyword scoring.
func (k KeywordSource) DocumentsByTenant(ctx context.Context, tenantID string) ([]vectorstore.Document, error) {
	scoped := tenant.NewContext(ctx, &tenant.Info{ID: tenantID})
	docs, err := k.Docs.ListDocuments(scoped)
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.Document, len(docs))
	for i, d := range docs {
		out[i] = vectorstore.Document{
			ID:      d.ID,
			Title:   d.Title,
			Content: d.Content,
			DocType: d.DocType,
		}
	}
	return out, nil
}

// Ingest processes and stores a document, returning its ID.
//
// The document is chunked, each chunk embedded, and the chunk vectors
// mean-combined into one document vector. Index failure degrades: the
// document is still persisted and retrievable via keyword fallback.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (_ string, err error) {
	defer func(start time.Time) { s.metrics.observe("ingest", start, err) }(time.Now())

	if _, err := tenant.IDFromContext(ctx); err != nil {
		return "", err
	}
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	content := chunker.Clean(req.Content)
	if content == "" {
		return "", fmt.Errorf("%w: content is empty after normalization", ErrValidation)
	}

	docID := req.ID
	if docID == "" {
		docID = uuid.NewString()
	}
	docType := req.DocType
	if docType == "" {
		docType = defaultDocType
	}

	chunks := s.chunker.Chunk(content)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	chunkVecs, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embedding document: %w", err)
	}
	docVec, err := embeddings.Combine(chunkVecs)
	if err != nil {
		return "", fmt.Errorf("combining chunk embeddings: %w", err)
	}

	doc := &docstore.Document{
		ID:         docID,
		Title:      req.Title,
		Content:    content,
		DocType:    docType,
		ObjectKey:  req.ObjectKey,
		ChunkCount: len(chunks),
	}
	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("saving document: %w", err)
	}

	err = s.index.Upsert(ctx, vectorstore.IndexedVector{
		DocumentID: docID,
		Vector:     docVec,
		Metadata: vectorstore.Metadata{
			Title:          req.Title,
			ContentPreview: previewOf(content),
			DocType:        docType,
		},
	})
	if err != nil {
		if !errors.Is(err, vectorstore.ErrIndexUnavailable) {
			return "", err
		}
		s.logger.Warn("document ingested without vector index entry",
			zap.String("document_id", docID),
			zap.Error(err),
		)
	}

	s.logger.Info("document ingested",
		zap.String("document_id", docID),
		zap.Int("chunks", len(chunks)),
	)
	return docID, nil
}

// IngestUpload stores the raw upload and ingests its content, deriving the
// title from the filename.
func (s *Service) IngestUpload(ctx context.Context, filename string, content []byte) (string, error) {
	if _, err := tenant.IDFromContext(ctx); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrValidation)
	}

	var objectKey string
	if s.objects != nil {
		key, err := s.objects.Put(ctx, filename, bytes.NewReader(content))
		if err != nil {
			return "", fmt.Errorf("storing upload: %w", err)
		}
		objectKey = key
	}

	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if title == "" {
		title = "Untitled"
	}

	return s.Ingest(ctx, IngestRequest{
		Title:     title,
		Content:   string(content),
		DocType:   defaultDocType,
		ObjectKey: objectKey,
	})
}

// Query answers a question from the tenant's documents and appends the
// result to query history.
func (s *Service) Query(ctx context.Context, question string) (_ *synthesizer.Answer, err error) {
	defer func(start time.Time) { s.metrics.observe("query", start, err) }(time.Now())

	if _, err := tenant.IDFromContext(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrValidation)
	}

	results, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		if isTenantErr(err) {
			return nil, err
		}
		// Retrieval trouble degrades to an uninformed answer.
		s.logger.Warn("retrieval failed, answering without context", zap.Error(err))
		results = nil
	}

	answer := s.synth.Synthesize(ctx, question, results)
	s.metrics.confidence.Observe(float64(answer.Confidence))

	sources := make([]string, len(answer.Sources))
	for i, src := range answer.Sources {
		sources[i] = src.Title
	}
	rec := &docstore.QueryRecord{
		ID:         uuid.NewString(),
		Question:   question,
		Answer:     answer.Text,
		Sources:    sources,
		Confidence: answer.Confidence,
	}
	if err := s.docs.SaveQuery(ctx, rec); err != nil {
		s.logger.Warn("failed to persist query history", zap.Error(err))
	}

	return answer, nil
}

// Search returns a ranked diagnostic list for the query without answer
// synthesis.
func (s *Service) Search(ctx context.Context, query string, limit int) (_ []vectorstore.SearchResult, err error) {
	defer func(start time.Time) { s.metrics.observe("search", start, err) }(time.Now())

	if _, err := tenant.IDFromContext(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrValidation)
	}
	if limit <= 0 {
		limit = searchLimit
	}
	return s.retriever.RetrieveTopK(ctx, query, limit)
}

// Delete removes a document, its vector, and its stored object.
//
// Deleting an unknown ID succeeds (idempotent); deleting another tenant's
// document returns ErrUnauthorized.
func (s *Service) Delete(ctx context.Context, documentID string) (err error) {
	defer func(start time.Time) { s.metrics.observe("delete", start, err) }(time.Now())

	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if documentID == "" {
		return fmt.Errorf("%w: document ID is empty", ErrValidation)
	}

	owner, err := s.docs.Owner(documentID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("checking document owner: %w", err)
	}
	if owner != tenantID {
		return fmt.Errorf("%w: document belongs to another tenant", ErrUnauthorized)
	}

	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := s.index.Delete(ctx, documentID); err != nil {
		if !errors.Is(err, vectorstore.ErrIndexUnavailable) {
			return err
		}
		s.logger.Warn("vector not removed, index unavailable",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}

	if s.objects != nil && doc.ObjectKey != "" {
		if err := s.objects.Delete(ctx, doc.ObjectKey); err != nil {
			s.logger.Warn("failed to remove stored object",
				zap.String("object_key", doc.ObjectKey),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("document deleted", zap.String("document_id", documentID))
	return nil
}

// History returns the tenant's most recent queries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = historyLimit
	}
	recs, err := s.docs.ListQueries(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, len(recs))
	for i, r := range recs {
		out[i] = HistoryEntry{
			ID:         r.ID,
			Question:   r.Question,
			Answer:     r.Answer,
			Sources:    r.Sources,
			Confidence: r.Confidence,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out, nil
}

// Documents lists the tenant's documents, newest first.
func (s *Service) Documents(ctx context.Context) ([]DocumentSummary, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentSummary, len(docs))
	for i, d := range docs {
		out[i] = DocumentSummary{
			ID:             d.ID,
			Title:          d.Title,
			DocType:        d.DocType,
			ContentPreview: previewOf(d.Content),
			ChunkCount:     d.ChunkCount,
			CreatedAt:      d.CreatedAt,
		}
	}
	return out, nil
}

// Document fetches one of the tenant's documents.
func (s *Service) Document(ctx context.Context, documentID string) (*DocumentDetail, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
		}
		return nil, err
	}
	return &DocumentDetail{
		ID:         doc.ID,
		Title:      doc.Title,
		Content:    doc.Content,
		DocType:    doc.DocType,
		ObjectKey:  doc.ObjectKey,
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// Stats summarizes the tenant's stored documents and query activity.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	byType := make(map[string]int)
	chunks := 0
	for _, d := range docs {
		byType[d.DocType]++
		chunks += d.ChunkCount
	}

	store, err := s.docs.Stats(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.docs.ListQueries(ctx, statsSampleLimit)
	if err != nil {
		return nil, err
	}
	var avg float32
	if len(recs) > 0 {
		var sum float32
		for _, r := range recs {
			sum += r.Confidence
		}
		avg = sum / float32(len(recs))
	}

	return &Stats{
		DocumentCount:     len(docs),
		DocumentsByType:   byType,
		ChunkCount:        chunks,
		QueryCount:        store.QueryCount,
		AverageConfidence: avg,
	}, nil
}

// SuggestedQuestions returns a static list of starter questions.
func (s *Service) SuggestedQuestions() []string {
	return []string{
		"How can I optimize my GPU usage for training?",
		"What are the best practices for cost optimization?",
		"How do I set up monitoring for my AI workloads?",
		"What instance types should I use for inference?",
		"How can I reduce my cloud costs?",
		"What are common troubleshooting steps for training failures?",
		"How do I implement auto-scaling?",
		"What's the difference between spot and on-demand instances?",
	}
}

func previewOf(content string) string {
	if len(content) <= previewLength {
		return content
	}
	return content[:previewLength] + "..."
}

func isTenantErr(err error) bool {
	return errors.Is(err, tenant.ErrMissingTenant) || errors.Is(err, tenant.ErrInvalidTenant)
}
