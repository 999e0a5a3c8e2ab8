package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// Store wraps a badgerhold database with tenant-scoped access.
//
// Every method resolves the tenant from the request context and fails
// closed when it is absent. Key lookups verify ownership after the fetch,
// so a document ID from another tenant behaves exactly like a missing one.
type Store struct {
	db     *badgerhold.Store
	logger *zap.Logger
}

// Open opens (or creates) the store at the given directory.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("docstore path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating docstore directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening docstore: %w", err)
	}

	logger.Info("docstore opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDocument inserts or replaces a document for the caller's tenant.
func (s *Store) SaveDocument(ctx context.Context, doc *Document) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if doc.ID == "" {
		return errors.New("document ID required")
	}

	now := time.Now().UTC()
	doc.TenantID = tenantID
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if err := s.db.Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument fetches a document owned by the caller's tenant.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := s.db.Get(id, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	if doc.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// Owner returns the tenant owning a document, regardless of the caller's
// tenant. For authorization decisions only; never expose the result.
func (s *Store) Owner(id string) (string, error) {
	var doc Document
	if err := s.db.Get(id, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting document: %w", err)
	}
	return doc.TenantID, nil
}

// DeleteDocument removes a document owned by the caller's tenant. Returns
// ErrNotFound when the document does not exist for this tenant.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := s.db.Delete(id, &Document{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns the caller's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var docs []Document
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").SortBy("CreatedAt").Reverse()
	if err := s.db.Find(&docs, query); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// SaveQuery appends a query record to the caller's history.
func (s *Store) SaveQuery(ctx context.Context, rec *QueryRecord) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("query record ID required")
	}

	rec.TenantID = tenantID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Upsert(rec.ID, rec); err != nil {
		return fmt.Errorf("saving query record: %w", err)
	}
	return nil
}

// ListQueries returns the caller's most recent query records, newest first.
func (s *Store) ListQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var recs []QueryRecord
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Find(&recs, query); err != nil {
		return nil, fmt.Errorf("listing query records: %w", err)
	}
	return recs, nil
}

// Stats returns counts for the caller's tenant.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var docs []Document
	if err := s.db.Find(&docs, badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID")); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	chunks := 0
	for _, d := range docs {
		chunks += d.ChunkCount
	}

	queryCount, err := s.db.Count(&QueryRecord{}, badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID"))
	if err != nil {
		return nil, fmt.Errorf("counting query records: %w", err)
	}

	return &Stats{
		DocumentCount: len(docs),
		ChunkCount:    chunks,
		QueryCount:    int(queryCount),
	}, nil
}
