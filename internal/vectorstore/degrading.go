package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// isTenantErr reports whether err is a tenant or input validation error.
// Those are caller faults and must surface instead of degrading.
func isTenantErr(err error) bool {
	return errors.Is(err, tenant.ErrMissingTenant) ||
		errors.Is(err, tenant.ErrInvalidTenant) ||
		errors.Is(err, ErrEmptyVector) ||
		errors.Is(err, ErrInvalidConfig)
}

// DegradingIndex wraps a primary vector index with a keyword fallback.
//
// Search failures on the primary degrade to keyword search instead of
// erroring; upsert and delete failures are reported as ErrIndexUnavailable
// so callers can continue without the index. The wrapper is how index
// outages stay invisible to end users.
type DegradingIndex struct {
	primary Index
	keyword *KeywordSearcher
	logger  *zap.Logger
}

// NewDegradingIndex creates the wrapper. keyword may be nil, in which case
// search failures surface as ErrIndexUnavailable.
func NewDegradingIndex(primary Index, keyword *KeywordSearcher, logger *zap.Logger) *DegradingIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DegradingIndex{primary: primary, keyword: keyword, logger: logger}
}

// Upsert writes to the primary index, mapping any failure to
// ErrIndexUnavailable.
func (d *DegradingIndex) Upsert(ctx context.Context, vec IndexedVector) error {
	if err := d.primary.Upsert(ctx, vec); err != nil {
		if isTenantErr(err) {
			return err
		}
		d.logger.Warn("index upsert failed, continuing degraded",
			zap.String("document_id", vec.DocumentID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Search queries the primary index and falls back to keyword search when it
// fails. queryText is the raw user query used for keyword scoring.
func (d *DegradingIndex) Search(ctx context.Context, query []float32, queryText string, topK int) ([]SearchResult, error) {
	results, err := d.primary.Search(ctx, query, topK)
	if err == nil {
		return results, nil
	}
	if isTenantErr(err) {
		return nil, err
	}
	if d.keyword == nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	d.logger.Warn("vector search failed, falling back to keyword search", zap.Error(err))
	return d.keyword.Search(ctx, queryText, topK)
}

// Delete removes from the primary index, mapping any failure to
// ErrIndexUnavailable.
func (d *DegradingIndex) Delete(ctx context.Context, documentID string) error {
	if err := d.primary.Delete(ctx, documentID); err != nil {
		if isTenantErr(err) {
			return err
		}
		d.logger.Warn("index delete failed, continuing degraded",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Close closes the primary index.
func (d *DegradingIndex) Close() error {
	return d.primary.Close()
}
