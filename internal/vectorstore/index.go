package vectorstore

import "context"

// Index is a tenant-scoped vector index.
//
// Every method resolves the tenant from the request context and fails
// closed with tenant.ErrMissingTenant when it is absent. A tenant can never
// read, replace, or delete another tenant's vectors regardless of the
// DocumentIDs it supplies.
type Index interface {
	// Upsert inserts or replaces the vector for a document. Idempotent:
	// repeated upserts with the same DocumentID leave one entry, holding
	// the last write.
	Upsert(ctx context.Context, vec IndexedVector) error

	// Search returns up to topK results for the query vector, most
	// similar first, restricted to the caller's tenant.
	Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error)

	// Delete removes a document's vector. Deleting an absent document is
	// a no-op.
	Delete(ctx context.Context, documentID string) error

	// Close releases backend resources.
	Close() error
}
