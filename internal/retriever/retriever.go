// Package retriever ranks stored documents against a query.
package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// Embedder generates a query embedding.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the vector search surface the retriever depends on.
// *vectorstore.DegradingIndex satisfies it.
type Searcher interface {
	Search(ctx context.Context, query []float32, queryText string, topK int) ([]vectorstore.SearchResult, error)
}

// Config controls retrieval behavior.
type Config struct {
	// TopK is the number of results requested from the index.
	TopK int

	// SimilarityThreshold filters results; hits below it are dropped.
	SimilarityThreshold float32

	// FallbackTopK bounds the below-threshold fallback result set.
	FallbackTopK int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.7
	}
	if c.FallbackTopK == 0 {
		c.FallbackTopK = 3
	}
}

// Retriever embeds a query and searches the index.
//
// Results below the similarity threshold are filtered out; when nothing
// passes, the top min(FallbackTopK, TopK) raw results are returned instead,
// so a populated index always yields candidates. An empty index yields an
// empty result, never an error.
type Retriever struct {
	embedder Embedder
	searcher Searcher
	config   Config
	logger   *zap.Logger
}

// New creates a Retriever.
func New(embedder Embedder, searcher Searcher, config Config, logger *zap.Logger) *Retriever {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		config:   config,
		logger:   logger,
	}
}

// Retrieve returns ranked results for the query, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	return r.RetrieveTopK(ctx, query, r.config.TopK)
}

// RetrieveTopK is Retrieve with an explicit result bound.
func (r *Retriever) RetrieveTopK(ctx context.Context, query string, topK int) ([]vectorstore.SearchResult, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	raw, err := r.searcher.Search(ctx, vec, query, topK)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []vectorstore.SearchResult{}, nil
	}

	filtered := raw[:0:0]
	for _, res := range raw {
		if res.Score >= r.config.SimilarityThreshold {
			filtered = append(filtered, res)
		}
	}
	if len(filtered) > 0 {
		return filtered, nil
	}

	// Nothing passed the threshold; fall back to the best raw hits so
	// the synthesizer still has grounding material.
	n := r.config.FallbackTopK
	if n > topK {
		n = topK
	}
	if n > len(raw) {
		n = len(raw)
	}
	r.logger.Debug("no results above threshold, using fallback",
		zap.Float32("threshold", r.config.SimilarityThreshold),
		zap.Int("fallback", n),
	)
	return raw[:n], nil
}
