package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// ChromemConfig holds configuration for the chromem-go embedded index.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string

	// Collection is the collection name.
	Collection string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// Validate validates the configuration.
func (c ChromemConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: chromem path required", ErrInvalidConfig)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: chromem collection required", ErrInvalidConfig)
	}
	return nil
}

// ChromemIndex implements Index on chromem-go, an embeddable pure-Go vector
// database with gob-file persistence. No external service required.
//
// Tenant isolation is payload-based: the tenant ID is written into each
// document's metadata and every search and delete carries a tenant filter.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewChromemIndex opens (or creates) a persistent chromem index.
func NewChromemIndex(config ChromemConfig, logger *zap.Logger) (*ChromemIndex, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	// Vectors are always precomputed by the embedding chain; chromem must
	// never be asked to embed on its own.
	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embeddings must be precomputed")
	}
	collection, err := db.GetOrCreateCollection(config.Collection, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}

	logger.Info("chromem index initialized",
		zap.String("path", path),
		zap.String("collection", config.Collection),
		zap.Bool("compress", config.Compress),
	)

	return &ChromemIndex{db: db, collection: collection, logger: logger}, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// chromemID namespaces a document ID by tenant. Chromem document IDs are
// collection-global, so without the prefix two tenants pinning the same
// document ID would overwrite each other's vectors.
func chromemID(tenantID, documentID string) string {
	return tenantID + "/" + documentID
}

// Upsert inserts or replaces a document vector. Implemented as delete then
// add: chromem has no native replace, and the delete is a no-op for new
// documents.
func (s *ChromemIndex) Upsert(ctx context.Context, vec IndexedVector) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if vec.DocumentID == "" {
		return fmt.Errorf("%w: document ID required", ErrInvalidConfig)
	}
	if len(vec.Vector) == 0 {
		return ErrEmptyVector
	}

	id := chromemID(tenantID, vec.DocumentID)
	if err := s.collection.Delete(ctx, map[string]string{"tenant_id": tenantID}, nil, id); err != nil {
		s.logger.Debug("pre-upsert delete", zap.String("document_id", vec.DocumentID), zap.Error(err))
	}

	doc := chromem.Document{
		ID:      id,
		Content: vec.Metadata.ContentPreview,
		Metadata: map[string]string{
			"tenant_id":   tenantID,
			"document_id": vec.DocumentID,
			"title":       vec.Metadata.Title,
			"doc_type":    vec.Metadata.DocType,
		},
		Embedding: vec.Vector,
	}
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("%w: adding document: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Search returns the topK most similar documents for the caller's tenant.
func (s *ChromemIndex) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", ErrInvalidConfig)
	}

	// chromem requires nResults <= document count.
	count := s.collection.Count()
	if count == 0 {
		return []SearchResult{}, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.QueryEmbedding(ctx, query, topK, map[string]string{"tenant_id": tenantID}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %v", ErrIndexUnavailable, err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			DocumentID:     r.Metadata["document_id"],
			Title:          r.Metadata["title"],
			ContentPreview: r.Content,
			DocType:        r.Metadata["doc_type"],
			Score:          r.Similarity,
		}
	}
	return out, nil
}

// Delete removes a document's vector. The tenant filter makes deleting
// another tenant's document a no-op.
func (s *ChromemIndex) Delete(ctx context.Context, documentID string) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.collection.Delete(ctx, map[string]string{"tenant_id": tenantID}, nil, chromemID(tenantID, documentID)); err != nil {
		return fmt.Errorf("%w: deleting document: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Close is a no-op; chromem persists synchronously.
func (s *ChromemIndex) Close() error {
	return nil
}
