package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

// pointNamespace seeds deterministic point IDs. A document always maps to
// the same Qdrant point, so upserts replace instead of duplicating.
var pointNamespace = uuid.MustParse("9e1b3c70-55c2-4c3e-8a3f-2b9d2f7a1d44")

// QdrantConfig holds configuration for the Qdrant gRPC index.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	UseTLS     bool

	// Dimension is the embedding dimension, used when creating the
	// collection.
	Dimension int

	// MaxRetries is the number of attempts for transient failures.
	MaxRetries int

	// RetryBackoff is the initial backoff, doubling per retry.
	RetryBackoff time.Duration
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: qdrant host required", ErrInvalidConfig)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: qdrant collection required", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: qdrant dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
}

// QdrantIndex implements Index on an external Qdrant service over gRPC.
//
// Tenant isolation is payload-based: every point carries tenant_id and all
// reads and deletes filter on it.
type QdrantIndex struct {
	client *qdrant.Client
	config QdrantConfig
	logger *zap.Logger
}

// NewQdrantIndex connects to Qdrant and ensures the collection exists.
func NewQdrantIndex(ctx context.Context, config QdrantConfig, logger *zap.Logger) (*QdrantIndex, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	idx := &QdrantIndex{client: client, config: config, logger: logger}
	if err := idx.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return idx, nil
}

func (s *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.config.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", ErrConnectionFailed, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.config.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.config.Collection, err)
	}
	s.logger.Info("created qdrant collection",
		zap.String("collection", s.config.Collection),
		zap.Int("dimension", s.config.Dimension),
	)
	return nil
}

// retry runs op with exponential backoff.
func (s *QdrantIndex) retry(ctx context.Context, name string, op func() error) error {
	backoff := s.config.RetryBackoff
	var lastErr error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		s.logger.Warn("qdrant operation failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return lastErr
}

// pointID derives the deterministic point UUID for a tenant's document.
func pointID(tenantID, documentID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(tenantID+"/"+documentID)).String()
}

// Upsert inserts or replaces a document vector. The deterministic point ID
// makes Qdrant's native upsert a replace.
func (s *QdrantIndex) Upsert(ctx context.Context, vec IndexedVector) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}
	if vec.DocumentID == "" {
		return fmt.Errorf("%w: document ID required", ErrInvalidConfig)
	}
	if len(vec.Vector) == 0 {
		return ErrEmptyVector
	}

	payload := map[string]*qdrant.Value{
		"document_id": {Kind: &qdrant.Value_StringValue{StringValue: vec.DocumentID}},
		"tenant_id":   {Kind: &qdrant.Value_StringValue{StringValue: tenantID}},
		"title":       {Kind: &qdrant.Value_StringValue{StringValue: vec.Metadata.Title}},
		"preview":     {Kind: &qdrant.Value_StringValue{StringValue: vec.Metadata.ContentPreview}},
		"doc_type":    {Kind: &qdrant.Value_StringValue{StringValue: vec.Metadata.DocType}},
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID(tenantID, vec.DocumentID)),
		Vectors: qdrant.NewVectors(vec.Vector...),
		Payload: payload,
	}

	err = s.retry(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.config.Collection,
			Points:         []*qdrant.PointStruct{point},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: upserting point: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Search returns the topK most similar documents for the caller's tenant.
func (s *QdrantIndex) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", ErrInvalidConfig)
	}

	var points []*qdrant.ScoredPoint
	err = s.retry(ctx, "search", func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.config.Collection,
			Query:          qdrant.NewQuery(query...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{matchKeyword("tenant_id", tenantID)},
			},
			WithPayload: qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %v", ErrIndexUnavailable, err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, SearchResult{
			DocumentID:     payloadString(p.Payload, "document_id"),
			Title:          payloadString(p.Payload, "title"),
			ContentPreview: payloadString(p.Payload, "preview"),
			DocType:        payloadString(p.Payload, "doc_type"),
			Score:          p.Score,
		})
	}
	return results, nil
}

// Delete removes a document's vector, filtered to the caller's tenant.
func (s *QdrantIndex) Delete(ctx context.Context, documentID string) error {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return err
	}

	err = s.retry(ctx, "delete", func() error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.config.Collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: &qdrant.Filter{
						Must: []*qdrant.Condition{
							matchKeyword("tenant_id", tenantID),
							matchKeyword("document_id", documentID),
						},
					},
				},
			},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: deleting point: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Close closes the gRPC connection.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}

func matchKeyword(field, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: field,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
