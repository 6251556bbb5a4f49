package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, ttl time.Duration) *SQLiteCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t, 0)

	_, ok, err := c.Get(ctx, "https://example.test/api/posts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "https://example.test/api/posts", []byte(`{"data":[]}`)))
	body, ok, err := c.Get(ctx, "https://example.test/api/posts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"data":[]}`, string(body))

	require.NoError(t, c.Put(ctx, "https://example.test/api/posts", []byte(`{"data":[1]}`)))
	body, _, _ = c.Get(ctx, "https://example.test/api/posts")
	assert.Equal(t, `{"data":[1]}`, string(body))
}

func TestExpiredEntriesAreMisses(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t, time.Hour)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, "k", []byte("v")))

	now = now.Add(30 * time.Minute)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
