package embeddings

import "fmt"

// Combine reduces per-chunk embeddings to a single document-level vector by
// element-wise mean. A single input vector is returned unchanged.
func Combine(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to combine", ErrEmptyInput)
	}
	if len(vectors) == 1 {
		return vectors[0], nil
	}

	dim := len(vectors[0])
	for i, v := range vectors[1:] {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrEmbeddingFailed, i+1, len(v), dim)
		}
	}

	out := make([]float32, dim)
	for _, v := range vectors {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float32(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}
