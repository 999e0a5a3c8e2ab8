package synthesizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// stubGenerator returns a fixed answer or error.
type stubGenerator struct {
	answer string
	err    error
	prompt Prompt
}

func (g *stubGenerator) Generate(_ context.Context, prompt Prompt) (string, error) {
	g.prompt = prompt
	return g.answer, g.err
}

func results(scores ...float32) []vectorstore.SearchResult {
	out := make([]vectorstore.SearchResult, len(scores))
	for i, s := range scores {
		out[i] = vectorstore.SearchResult{
			DocumentID:     "doc",
			Title:          "GPU Memory Optimization",
			ContentPreview: "Reduce GPU memory usage with batching.",
			DocType:        "guide",
			Score:          s,
		}
	}
	return out
}

func TestSynthesize_EmptyRetrieval(t *testing.T) {
	s := New(&stubGenerator{answer: "should not be used"}, zap.NewNop())

	ans := s.Synthesize(context.Background(), "what about quantum?", nil)

	assert.Contains(t, ans.Text, "don't have specific information")
	assert.InDelta(t, 0.1, ans.Confidence, 1e-6)
	assert.Empty(t, ans.Sources)
}

func TestSynthesize_ConfidenceClamped(t *testing.T) {
	s := New(&stubGenerator{answer: "answer"}, zap.NewNop())

	tests := []struct {
		name   string
		scores []float32
		want   float32
	}{
		{name: "mean within bounds", scores: []float32{0.8, 0.6}, want: 0.7},
		{name: "clamped to floor", scores: []float32{0.05, 0.1}, want: 0.3},
		{name: "clamped to ceiling", scores: []float32{0.99, 0.99}, want: 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := s.Synthesize(context.Background(), "how to reduce gpu memory", results(tt.scores...))
			assert.InDelta(t, tt.want, ans.Confidence, 1e-5)
		})
	}
}

func TestSynthesize_SourcesMirrorRetrievalOrder(t *testing.T) {
	s := New(&stubGenerator{answer: "answer"}, zap.NewNop())

	in := []vectorstore.SearchResult{
		{Title: "first", DocType: "guide", Score: 0.9},
		{Title: "second", DocType: "runbook", Score: 0.8},
		{Title: "third", DocType: "text", Score: 0.7},
	}
	ans := s.Synthesize(context.Background(), "question", in)

	require.Len(t, ans.Sources, 3)
	assert.Equal(t, Source{Title: "first", DocType: "guide"}, ans.Sources[0])
	assert.Equal(t, Source{Title: "second", DocType: "runbook"}, ans.Sources[1])
	assert.Equal(t, Source{Title: "third", DocType: "text"}, ans.Sources[2])
}

func TestSynthesize_GeneratorFailureFallsBackToTemplate(t *testing.T) {
	s := New(&stubGenerator{err: errors.New("api down")}, zap.NewNop())

	ans := s.Synthesize(context.Background(), "how do I reduce gpu usage", results(0.8))

	// Provider failure never surfaces; the GPU template answers instead.
	assert.Contains(t, ans.Text, "GPU")
	assert.InDelta(t, 0.8, ans.Confidence, 1e-5)
	assert.Len(t, ans.Sources, 1)
}

func TestSynthesize_NilGeneratorUsesTemplates(t *testing.T) {
	s := New(nil, zap.NewNop())

	tests := []struct {
		query string
		want  string
	}{
		{query: "how to lower my cost", want: "spot instances"},
		{query: "gpu utilization issues", want: "mixed precision"},
		{query: "memory leak troubleshooting", want: "memory leaks"},
		{query: "what is the roadmap", want: "infrastructure configuration"},
	}
	for _, tt := range tests {
		ans := s.Synthesize(context.Background(), tt.query, results(0.75))
		assert.Contains(t, ans.Text, tt.want, "query %q", tt.query)
	}
}

func TestSynthesize_GreetingShortCircuit(t *testing.T) {
	gen := &stubGenerator{answer: "unused"}
	s := New(gen, zap.NewNop())

	ans := s.Synthesize(context.Background(), "hello", nil)

	assert.Contains(t, ans.Text, "Hello")
	assert.InDelta(t, 0.9, ans.Confidence, 1e-6)
	assert.Empty(t, ans.Sources)
	// The generator must not have been called.
	assert.Empty(t, gen.prompt.User)
}

func TestSynthesize_GreetingDetection(t *testing.T) {
	assert.True(t, isGreeting("hi"))
	assert.True(t, isGreeting("Hello!"))
	assert.True(t, isGreeting("hey there"))
	assert.False(t, isGreeting("hello how do I optimize gpu memory"))
	assert.False(t, isGreeting("high memory usage"))
	assert.False(t, isGreeting(""))
}

func TestSynthesize_PromptCarriesContextAndQuery(t *testing.T) {
	gen := &stubGenerator{answer: "grounded answer"}
	s := New(gen, zap.NewNop())

	ans := s.Synthesize(context.Background(), "how to reduce usage", results(0.8))

	assert.Equal(t, "grounded answer", ans.Text)
	assert.Contains(t, gen.prompt.User, "GPU Memory Optimization")
	assert.Contains(t, gen.prompt.User, "how to reduce usage")
	assert.Contains(t, gen.prompt.System, "infrastructure")
}

func TestBuildContext_Bounded(t *testing.T) {
	long := strings.Repeat("x", 3000)
	in := []vectorstore.SearchResult{
		{Title: "a", ContentPreview: long},
		{Title: "b", ContentPreview: long},
		{Title: "c", ContentPreview: long},
	}
	block := buildContext(in)
	assert.LessOrEqual(t, len(block), maxContextChars)
}
