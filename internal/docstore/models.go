// Package docstore persists document metadata and query history in an
// embedded Badger database.
package docstore

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist for the caller's
// tenant. Cross-tenant lookups return it too: callers cannot distinguish
// "absent" from "owned by someone else".
var ErrNotFound = errors.New("document not found")

// Document is the stored record for an ingested document.
//
// Content is the cleaned full text; the raw upload, when present, lives in
// the object store under ObjectKey.
type Document struct {
	ID         string `badgerhold:"key"`
	TenantID   string `badgerhold:"index"`
	Title      string
	Content    string
	DocType    string
	ObjectKey  string
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QueryRecord is one entry of a tenant's query history.
type QueryRecord struct {
	ID         string `badgerhold:"key"`
	TenantID   string `badgerhold:"index"`
	Question   string
	Answer     string
	Sources    []string
	Confidence float32
	CreatedAt  time.Time
}

// Stats summarizes a tenant's stored state.
type Stats struct {
	DocumentCount int
	ChunkCount    int
	QueryCount    int
}
