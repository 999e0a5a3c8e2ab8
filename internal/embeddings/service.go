package embeddings

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service runs an ordered chain of embedding providers.
//
// Providers are tried in order; the first success wins. The chain is
// constructed so its last provider is infallible (HashProvider), which makes
// EmbedDocuments and EmbedQuery total: callers never see an embedding error
// once the chain is built. Falling through is logged and counted, not
// surfaced.
type Service struct {
	providers []Provider
	logger    *zap.Logger
	metrics   *Metrics
}

// NewService creates a chain over the given providers.
//
// At least one provider is required and the final provider must not depend
// on external availability.
func NewService(logger *zap.Logger, providers ...Provider) (*Service, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: at least one provider required", ErrInvalidConfig)
	}
	dim := providers[0].Dimension()
	for _, p := range providers[1:] {
		if p.Dimension() != dim {
			return nil, fmt.Errorf("%w: provider %s dimension %d != %d", ErrInvalidConfig, p.Name(), p.Dimension(), dim)
		}
	}

	return &Service{
		providers: providers,
		logger:    logger,
		metrics:   newMetrics(),
	}, nil
}

// Dimension returns the chain's embedding dimension.
func (s *Service) Dimension() int {
	return s.providers[0].Dimension()
}

// EmbedDocuments generates embeddings for multiple texts, falling through
// the provider chain on failure.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	var lastErr error
	for i, p := range s.providers {
		start := time.Now()
		vectors, err := p.EmbedDocuments(ctx, texts)
		s.metrics.observe(p.Name(), "embed_documents", time.Since(start), err)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if i < len(s.providers)-1 {
			s.logger.Warn("embedding provider failed, falling through",
				zap.String("provider", p.Name()),
				zap.String("next", s.providers[i+1].Name()),
				zap.Error(err))
			s.metrics.fallthroughs.WithLabelValues(p.Name()).Inc()
		}
	}
	return nil, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

// EmbedQuery generates an embedding for a single query, falling through the
// provider chain on failure.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	var lastErr error
	for i, p := range s.providers {
		start := time.Now()
		vector, err := p.EmbedQuery(ctx, text)
		s.metrics.observe(p.Name(), "embed_query", time.Since(start), err)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if i < len(s.providers)-1 {
			s.logger.Warn("embedding provider failed, falling through",
				zap.String("provider", p.Name()),
				zap.String("next", s.providers[i+1].Name()),
				zap.Error(err))
			s.metrics.fallthroughs.WithLabelValues(p.Name()).Inc()
		}
	}
	return nil, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

// NewChain builds the standard provider chain from endpoint URLs.
//
// Each non-empty URL contributes a TEI provider; the hash provider is always
// appended last so the chain never fails.
func NewChain(logger *zap.Logger, urls []string, model string, dimension int, timeout time.Duration) (*Service, error) {
	var providers []Provider
	for _, url := range urls {
		if url == "" {
			continue
		}
		tei, err := NewTEIProvider(TEIConfig{
			BaseURL:   url,
			Model:     model,
			Dimension: dimension,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating TEI provider for %s: %w", url, err)
		}
		providers = append(providers, tei)
	}

	hash, err := NewHashProvider(dimension)
	if err != nil {
		return nil, err
	}
	providers = append(providers, hash)

	return NewService(logger, providers...)
}
