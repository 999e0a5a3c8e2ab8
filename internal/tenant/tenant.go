// Package tenant provides tenant context propagation and isolation helpers.
//
// Every document and query in ragd is scoped to exactly one tenant. The
// tenant travels in the request context; stores and services extract it
// with FromContext and fail closed when it is absent.
package tenant

import (
	"context"
	"errors"
)

// Tenant isolation errors - fail closed security model.
var (
	// ErrMissingTenant is returned when tenant info is missing from context.
	// This triggers "fail closed" behavior - no empty results, just errors.
	ErrMissingTenant = errors.New("tenant info missing from context")

	// ErrInvalidTenant is returned when a tenant identifier is invalid.
	ErrInvalidTenant = errors.New("invalid tenant identifier")
)

// contextKey is the context key for Info.
type contextKey struct{}

// Info holds tenant context for filtering and isolation.
type Info struct {
	// ID is the tenant identifier (required).
	ID string
}

// Validate checks that required fields are present and valid.
func (t *Info) Validate() error {
	if t.ID == "" {
		return ErrInvalidTenant
	}
	return nil
}

// NewContext adds tenant Info to a context.
func NewContext(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// FromContext extracts tenant Info from a context.
// Returns ErrMissingTenant if not present - fail closed.
func FromContext(ctx context.Context) (*Info, error) {
	val := ctx.Value(contextKey{})
	if val == nil {
		return nil, ErrMissingTenant
	}
	info, ok := val.(*Info)
	if !ok || info == nil {
		return nil, ErrMissingTenant
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

// IDFromContext returns the tenant ID from a context, failing closed.
func IDFromContext(ctx context.Context) (string, error) {
	info, err := FromContext(ctx)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}
