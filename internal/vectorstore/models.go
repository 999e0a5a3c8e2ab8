// Package vectorstore provides tenant-scoped vector index implementations.
package vectorstore

import "errors"

var (
	// ErrInvalidConfig indicates invalid index configuration.
	ErrInvalidConfig = errors.New("invalid vectorstore configuration")

	// ErrEmptyVector indicates a missing or empty embedding vector.
	ErrEmptyVector = errors.New("empty embedding vector")

	// ErrDimensionMismatch indicates vectors of incompatible dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexUnavailable indicates the index backend cannot be reached.
	// Callers treat this as degradation, not failure: queries fall back to
	// keyword search and ingestion still persists the document.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrConnectionFailed indicates the backend client could not connect.
	ErrConnectionFailed = errors.New("vectorstore connection failed")
)

// Metadata is the structured payload stored alongside each vector.
//
// The schema is fixed: every indexed vector carries exactly these fields.
// TenantID is injected from the request context by the index, never by the
// caller.
type Metadata struct {
	DocumentID     string
	TenantID       string
	Title          string
	ContentPreview string
	DocType        string
}

// IndexedVector is a document-level embedding with its payload.
type IndexedVector struct {
	// DocumentID identifies the document. One vector per document; a
	// second upsert with the same ID replaces the first.
	DocumentID string

	// Vector is the document-level embedding.
	Vector []float32

	// Metadata is the payload returned with search hits.
	Metadata Metadata
}

// SearchResult is a single search hit. The json tags shape the diagnostic
// search API response.
type SearchResult struct {
	DocumentID     string `json:"document_id"`
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
	DocType        string `json:"doc_type"`

	// Score is the similarity score, higher is more similar. Cosine
	// backends produce scores in [-1, 1]; keyword fallback in (0, 0.9].
	Score float32 `json:"similarity_score"`
}
