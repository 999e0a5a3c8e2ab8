// Package objectstore stores raw uploaded files on the local filesystem.
//
// Objects are keyed as "<tenant>/<uuid>_<name>". The tenant segment comes
// from the request context, never from the caller-supplied name, and reads
// verify it, so tenants cannot address each other's objects.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

var (
	// ErrNotFound is returned when an object does not exist for the
	// caller's tenant.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for malformed or traversal-attempting keys.
	ErrInvalidKey = errors.New("invalid object key")
)

// Store is a filesystem-backed object store.
type Store struct {
	root   string
	logger *zap.Logger
}

// New creates a store rooted at the given directory.
func New(root string, logger *zap.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("objectstore root required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating objectstore root: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Put stores an object and returns its key.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return "", err
	}

	base := sanitizeName(name)
	key := tenantID + "/" + uuid.NewString() + "_" + base

	dir := filepath.Join(s.root, tenantID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating tenant directory: %w", err)
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating object file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing object: %w", err)
	}

	s.logger.Debug("stored object", zap.String("key", key))
	return key, nil
}

// Get opens an object owned by the caller's tenant.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening object: %w", err)
	}
	return f, nil
}

// Delete removes an object. Absent objects are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(ctx, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing object: %w", err)
	}
	return nil
}

// resolve validates a key against the caller's tenant and maps it to a
// filesystem path.
func (s *Store) resolve(ctx context.Context, key string) (string, error) {
	tenantID, err := tenant.IDFromContext(ctx)
	if err != nil {
		return "", err
	}

	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 || parts[0] != tenantID || parts[1] == "" {
		return "", ErrInvalidKey
	}
	if strings.Contains(parts[1], "/") || strings.Contains(parts[1], "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, parts[0], parts[1]), nil
}

// sanitizeName strips path components and characters unsafe for filenames.
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
