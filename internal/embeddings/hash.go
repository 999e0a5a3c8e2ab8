package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// HashProvider generates deterministic pseudo-embeddings from text content.
//
// It is the terminal provider in the chain: it never fails and keeps the
// pipeline operational when no real embedding endpoint is reachable. The
// vectors carry no semantic signal, which is why retrieval pairs it with a
// keyword fallback, but identical text always maps to an identical vector
// so ingestion stays idempotent.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hash provider producing vectors of the given
// dimension.
func NewHashProvider(dimension int) (*HashProvider, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return &HashProvider{dimension: dimension}, nil
}

// Name identifies the provider.
func (p *HashProvider) Name() string {
	return "hash"
}

// Dimension returns the configured vector dimension.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// EmbedDocuments generates deterministic embeddings for multiple texts.
func (p *HashProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.vector(text)
	}
	return vectors, nil
}

// EmbedQuery generates a deterministic embedding for a single query.
func (p *HashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	return p.vector(text), nil
}

// vector expands sha256(text) into dimension floats in [-1, 1] by rehashing
// the digest with an incrementing block counter.
func (p *HashProvider) vector(text string) []float32 {
	seed := sha256.Sum256([]byte(text))

	out := make([]float32, 0, p.dimension)
	var counter [8]byte
	for block := uint64(0); len(out) < p.dimension; block++ {
		binary.BigEndian.PutUint64(counter[:], block)
		digest := sha256.Sum256(append(seed[:], counter[:]...))
		for i := 0; i+4 <= len(digest) && len(out) < p.dimension; i += 4 {
			u := binary.BigEndian.Uint32(digest[i : i+4])
			// Map uint32 to [-1, 1].
			out = append(out, float32(u)/float32(1<<31)-1)
		}
	}
	return out
}
