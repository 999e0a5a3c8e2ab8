package objectstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/tenant"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func tenantCtx(id string) context.Context {
	return tenant.NewContext(context.Background(), &tenant.Info{ID: id})
}

func TestStore_PutAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := tenantCtx("acme")

	key, err := s.Put(ctx, "report.txt", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "acme/"))
	assert.True(t, strings.HasSuffix(key, "_report.txt"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(body))
}

func TestStore_CrossTenantKeyRejected(t *testing.T) {
	s := newTestStore(t)

	key, err := s.Put(tenantCtx("acme"), "secret.txt", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = s.Get(tenantCtx("globex"), key)
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = s.Delete(tenantCtx("globex"), key)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := tenantCtx("acme")

	key, err := s.Put(ctx, "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_TraversalKeysRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := tenantCtx("acme")

	for _, key := range []string{
		"acme/../globex/file",
		"acme",
		"acme/",
		"globex/file",
		"acme/sub/file",
	} {
		_, err := s.Get(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestStore_SanitizesUploadNames(t *testing.T) {
	s := newTestStore(t)
	ctx := tenantCtx("acme")

	key, err := s.Put(ctx, "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, key, "..")

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	rc.Close()
}

func TestStore_FailsClosedWithoutTenant(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Put(context.Background(), "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, tenant.ErrMissingTenant)
}
