package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FactoryConfig selects and configures the index backend.
type FactoryConfig struct {
	// Provider is "memory", "chromem" or "qdrant".
	Provider string

	// Dimension is the embedding dimension.
	Dimension int

	Chromem ChromemConfig
	Qdrant  QdrantConfig
}

// New creates an Index for the configured provider.
func New(ctx context.Context, cfg FactoryConfig, logger *zap.Logger) (Index, error) {
	switch cfg.Provider {
	case "memory":
		return NewMemoryIndex(), nil
	case "chromem", "":
		return NewChromemIndex(cfg.Chromem, logger)
	case "qdrant":
		qcfg := cfg.Qdrant
		qcfg.Dimension = cfg.Dimension
		return NewQdrantIndex(ctx, qcfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
