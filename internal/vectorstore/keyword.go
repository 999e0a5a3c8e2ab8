package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// maxKeywordScore caps keyword scores below vector similarity ceiling so a
// keyword hit never outranks a perfect vector match.
const maxKeywordScore = 0.9

// Document is the text view of a stored document used for keyword scoring.
type Document struct {
	ID      string
	Title   string
	Content string
	DocType string
}

// DocumentSource lists a tenant's documents for keyword search.
type DocumentSource interface {
	DocumentsByTenant(ctx context.Context, tenantID string) ([]Document, error)
}

// KeywordSearcher scores documents by query word occurrence.
//
// It serves as the retrieval fallback when the vector index is unavailable:
// results are crude but queries keep answering. Score is the fraction of
// query words present in the document's lowercased title plus content,
// capped at 0.9. Only documents with at least one matching word are
// returned.
type KeywordSearcher struct {
	source DocumentSource
}

// NewKeywordSearcher creates a keyword searcher over the given source.
func NewKeywordSearcher(source DocumentSource) *KeywordSearcher {
	return &KeywordSearcher{source: source}
}

// Search returns up to topK keyword-scored results for the caller's tenant.
func (k *KeywordSearcher) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", ErrInvalidConfig)
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []SearchResult{}, nil
	}

	docs, err := k.source.DocumentsByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var results []SearchResult
	for _, doc := range docs {
		text := strings.ToLower(doc.Title + " " + doc.Content)
		matches := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		score := float32(matches) / float32(len(words))
		if score > maxKeywordScore {
			score = maxKeywordScore
		}
		results = append(results, SearchResult{
			DocumentID:     doc.ID,
			Title:          doc.Title,
			ContentPreview: preview(doc.Content),
			DocType:        doc.DocType,
			Score:          score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// preview truncates content for result payloads.
func preview(content string) string {
	const max = 200
	if len(content) <= max {
		return content
	}
	return content[:max]
}
