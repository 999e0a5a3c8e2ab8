package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// stubEmbedder returns a fixed vector.
type stubEmbedder struct{}

func (stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

// stubSearcher returns canned results truncated to topK.
type stubSearcher struct {
	results []vectorstore.SearchResult
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, _ string, topK int) ([]vectorstore.SearchResult, error) {
	if len(s.results) > topK {
		return s.results[:topK], nil
	}
	return s.results, nil
}

func res(id string, score float32) vectorstore.SearchResult {
	return vectorstore.SearchResult{DocumentID: id, Title: id, Score: score}
}

func TestRetrieve_FiltersByThreshold(t *testing.T) {
	searcher := &stubSearcher{results: []vectorstore.SearchResult{
		res("high", 0.92),
		res("mid", 0.75),
		res("low", 0.40),
	}}
	r := New(stubEmbedder{}, searcher, Config{TopK: 3, SimilarityThreshold: 0.7}, zap.NewNop())

	out, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "high", out[0].DocumentID)
	assert.Equal(t, "mid", out[1].DocumentID)
}

func TestRetrieve_FallbackWhenNothingPassesThreshold(t *testing.T) {
	searcher := &stubSearcher{results: []vectorstore.SearchResult{
		res("a", 0.5),
		res("b", 0.4),
		res("c", 0.3),
		res("d", 0.2),
	}}
	r := New(stubEmbedder{}, searcher, Config{TopK: 4, SimilarityThreshold: 0.7, FallbackTopK: 3}, zap.NewNop())

	out, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)

	// Top min(FallbackTopK, TopK) raw results, order preserved.
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].DocumentID)
	assert.Equal(t, "c", out[2].DocumentID)
}

func TestRetrieve_FallbackBoundedByTopK(t *testing.T) {
	searcher := &stubSearcher{results: []vectorstore.SearchResult{
		res("a", 0.5),
		res("b", 0.4),
	}}
	r := New(stubEmbedder{}, searcher, Config{TopK: 2, SimilarityThreshold: 0.9, FallbackTopK: 5}, zap.NewNop())

	out, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRetrieve_EmptyIndexYieldsEmptyResult(t *testing.T) {
	r := New(stubEmbedder{}, &stubSearcher{}, Config{}, zap.NewNop())

	out, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRetrieveTopK_OverridesConfig(t *testing.T) {
	searcher := &stubSearcher{results: []vectorstore.SearchResult{
		res("a", 0.9),
		res("b", 0.85),
		res("c", 0.8),
	}}
	r := New(stubEmbedder{}, searcher, Config{TopK: 3, SimilarityThreshold: 0.7}, zap.NewNop())

	out, err := r.RetrieveTopK(context.Background(), "query", 1)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
