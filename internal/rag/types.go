package rag

import "time"

// IngestRequest is a document ingestion request.
type IngestRequest struct {
	// ID optionally pins the document ID. Re-ingesting with the same ID
	// replaces the stored document and its vector. Empty generates one.
	ID string `json:"id" validate:"omitempty,max=128"`

	Title   string `json:"title" validate:"required,max=500"`
	Content string `json:"content" validate:"required"`
	DocType string `json:"doc_type" validate:"omitempty,max=100"`

	// ObjectKey links the stored raw upload, when one exists.
	ObjectKey string `json:"-"`
}

// DocumentSummary is the list view of a stored document.
type DocumentSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	DocType        string    `json:"doc_type"`
	ContentPreview string    `json:"content_preview"`
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// DocumentDetail is the full view of a stored document.
type DocumentDetail struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	DocType    string    `json:"doc_type"`
	ObjectKey  string    `json:"object_key,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HistoryEntry is one past query with its answer.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Sources    []string  `json:"sources"`
	Confidence float32   `json:"confidence_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats summarizes a tenant's stored state and query activity.
type Stats struct {
	DocumentCount     int            `json:"document_count"`
	DocumentsByType   map[string]int `json:"documents_by_type"`
	ChunkCount        int            `json:"chunk_count"`
	QueryCount        int            `json:"query_count"`
	AverageConfidence float32        `json:"average_confidence"`
}
