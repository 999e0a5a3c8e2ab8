// Package embeddings provides embedding generation via a chain of providers.
//
// The chain tries each configured provider in order and falls through to a
// deterministic hash provider, so embedding as a whole never fails: a dead
// endpoint degrades quality, not availability.
package embeddings

import "context"

// Provider generates embedding vectors for texts.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// EmbedDocuments generates embeddings for multiple texts. The result
	// has one vector per input text, in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension produced by this provider.
	Dimension() int
}
