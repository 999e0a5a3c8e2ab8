package rag

import "errors"

// Error taxonomy for the RAG pipeline.
//
// Only these surface to callers as client faults. Provider and index
// degradation is absorbed inside the pipeline: a dead embedding endpoint,
// LLM, or vector index reduces answer quality, never availability.
var (
	// ErrValidation indicates malformed caller input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates an operation on another tenant's resource.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates a missing resource for the caller's tenant.
	ErrNotFound = errors.New("not found")
)
