package bigcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/layercache/provider"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{Shards: 16, MaxEntriesInWindow: 1_000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestBigcache_SetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	assert.False(t, pr.HasNativeTTL(p))

	ok, err := p.Set(ctx, "k", []byte("v"), 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	b, hit, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("v"), b)

	require.NoError(t, p.Del(ctx, "k"))
	_, hit, err = p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestBigcache_DelAbsent(t *testing.T) {
	p := newTestProvider(t)
	assert.NoError(t, p.Del(context.Background(), "nope"))
}

func TestBigcache_ExistsAndClear(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, _ = p.Set(ctx, "a", []byte("1"), 1, 0)
	ok, err := p.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.Clear(ctx))
	ok, err = p.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
