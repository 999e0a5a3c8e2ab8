package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// staticSource serves fixed documents per tenant.
type staticSource struct {
	docs map[string][]Document
}

func (s *staticSource) DocumentsByTenant(_ context.Context, tenantID string) ([]Document, error) {
	return s.docs[tenantID], nil
}

func TestKeywordSearcher_ScoresByWordOverlap(t *testing.T) {
	source := &staticSource{docs: map[string][]Document{
		"acme": {
			{ID: "d1", Title: "GPU Memory Optimization", Content: "Reduce GPU memory usage with batching."},
			{ID: "d2", Title: "Cost Report", Content: "Monthly cloud cost breakdown."},
			{ID: "d3", Title: "Onboarding", Content: "Welcome to the team."},
		},
	}}
	k := NewKeywordSearcher(source)

	results, err := k.Search(tenantCtx("acme"), "gpu memory", 10)
	require.NoError(t, err)

	// d1 matches both words, d2 and d3 match none.
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocumentID)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
}

func TestKeywordSearcher_PartialMatchScoresFractionally(t *testing.T) {
	source := &staticSource{docs: map[string][]Document{
		"acme": {
			{ID: "d1", Title: "Memory tuning", Content: "heap sizing"},
		},
	}}
	k := NewKeywordSearcher(source)

	results, err := k.Search(tenantCtx("acme"), "memory quota limits policy", 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	// 1 of 4 query words present.
	assert.InDelta(t, 0.25, results[0].Score, 1e-6)
}

func TestKeywordSearcher_ScoreCappedAtPointNine(t *testing.T) {
	source := &staticSource{docs: map[string][]Document{
		"acme": {{ID: "d1", Title: "exact", Content: "match"}},
	}}
	k := NewKeywordSearcher(source)

	results, err := k.Search(tenantCtx("acme"), "exact match", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, results[0].Score, float32(0.9))
}

func TestKeywordSearcher_ZeroScoreExcluded(t *testing.T) {
	source := &staticSource{docs: map[string][]Document{
		"acme": {{ID: "d1", Title: "unrelated", Content: "nothing here"}},
	}}
	k := NewKeywordSearcher(source)

	results, err := k.Search(tenantCtx("acme"), "kubernetes autoscaling", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestKeywordSearcher_CaseInsensitive(t *testing.T) {
	source := &staticSource{docs: map[string][]Document{
		"acme": {{ID: "d1", Title: "KUBERNETES Guide", Content: ""}},
	}}
	k := NewKeywordSearcher(source)

	results, err := k.Search(tenantCtx("acme"), "kubernetes", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestKeywordSearcher_RespectsTopK(t *testing.T) {
	source := &staticSource{docs: map[string][]Document{
		"acme": {
			{ID: "d1", Title: "alpha topic", Content: ""},
			{ID: "d2", Title: "alpha topic", Content: ""},
			{ID: "d3", Title: "alpha topic", Content: ""},
		},
	}}
	k := NewKeywordSearcher(source)

	results, err := k.Search(tenantCtx("acme"), "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestKeywordSearcher_FailsClosedWithoutTenant(t *testing.T) {
	k := NewKeywordSearcher(&staticSource{})
	_, err := k.Search(context.Background(), "query", 3)
	assert.ErrorIs(t, err, tenant.ErrMissingTenant)
}

func TestKeywordSearcher_EmptyQuery(t *testing.T) {
	k := NewKeywordSearcher(&staticSource{})
	results, err := k.Search(tenantCtx("acme"), "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
