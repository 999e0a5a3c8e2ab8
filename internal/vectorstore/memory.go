package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// memoryEntry is a stored vector plus its insertion sequence number.
type memoryEntry struct {
	vector   []float32
	metadata Metadata
	seq      uint64
}

// MemoryIndex is an in-process Index backed by a map.
//
// Used for tests and single-process deployments with no persistence needs.
// Ties on similarity score break toward the most recently upserted entry.
type MemoryIndex struct {
	mu      sync.RWMutex
	tenants map[string]map[string]memoryEntry
	nextSeq uint64
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		tenants: make(map[string]map[string]memoryEntry),
	}
}

// Upsert inserts or replaces a document vector for the caller's tenant.
func (m *MemoryIndex) Upsert(ctx context.Context, vec IndexedVector) error {
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

	meta := vec.Metadata
	meta.TenantID = tenantID
	meta.DocumentID = vec.DocumentID

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.tenants[tenantID]
	if docs == nil {
		docs = make(map[string]memoryEntry)
		m.tenants[tenantID] = docs
	}
	m.nextSeq++
	docs[vec.DocumentID] = memoryEntry{
		vector:   append([]float32(nil), vec.Vector...),
		metadata: meta,
		seq:      m.nextSeq,
	}
	return nil
}

// Search returns the topK most similar vectors for the caller's tenant.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
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

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		result SearchResult
		seq    uint64
	}
	var hits []scored
	for _, entry := range m.tenants[tenantID] {
		score, err := CosineSimilarity(query, entry.vector)
		if err != nil {
			return nil, err
		}
		hits = append(hits, scored{
			result: SearchResult{
				DocumentID:     entry.metadata.DocumentID,
				Title:          entry.metadata.Title,
				ContentPreview: entry.metadata.ContentPreview,
				DocType:        entry.metadata.DocType,
				Score:          score,
			},
			seq: entry.seq,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].result.Score != hits[j].result.Score {
			return hits[i].result.Score > hits[j].result.Score
		}
		// Equal scores: most recently written wins.
		return hits[i].seq > hits[j].seq
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = h.result
	}
	return results, nil
}

// Delete removes a document vector for the caller's tenant. No-op when the
// document is absent.
func (m *MemoryIndex) Delete(ctx context.Context, documentID string) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants[tenantID], documentID)
	return nil
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}
