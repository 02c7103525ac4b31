package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/layercache/provider"
)

func TestNew_RequiresDir(t *testing.T) {
	_, err := New(Config{})
	assert.True(t, errors.Is(err, pr.ErrUnavailable))
}

func TestNew_UnwritableDir(t *testing.T) {
	// a regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := New(Config{Dir: filepath.Join(blocker, "cache")})
	assert.True(t, errors.Is(err, pr.ErrUnavailable))
}

func TestFile_MemFS(t *testing.T) {
	ctx := context.Background()
	fs := memfs.New()
	p, err := New(Config{FS: fs})
	require.NoError(t, err)
	assert.Equal(t, pr.TokenHashed, pr.PolicyOf(p))
	assert.False(t, pr.HasNativeTTL(p))

	ok, err := p.Set(ctx, "abc", []byte("payload"), 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	b, hit, err := p.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("payload"), b)

	exists, err := p.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	// overwrite replaces the record
	_, err = p.Set(ctx, "abc", []byte("v2"), 1, 0)
	require.NoError(t, err)
	b, _, _ = p.Get(ctx, "abc")
	assert.Equal(t, []byte("v2"), b)

	infos, err := fs.ReadDir("/")
	require.NoError(t, err)
	assert.Len(t, infos, 1, "no temp files left behind")

	require.NoError(t, p.Del(ctx, "abc"))
	require.NoError(t, p.Del(ctx, "abc"))
	_, hit, err = p.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFile_Clear(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{FS: memfs.New()})
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c"} {
		_, err := p.Set(ctx, k, []byte(k), 1, 0)
		require.NoError(t, err)
	}
	require.NoError(t, p.Clear(ctx))
	for _, k := range []string{"a", "b", "c"} {
		ok, err := p.Exists(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestFile_OSDir(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	p, err := New(Config{Dir: dir})
	require.NoError(t, err)

	_, err = p.Set(ctx, "0123abcd", []byte("disk"), 1, 0)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "0123abcd"))
	require.NoError(t, err)
	assert.Equal(t, []byte("disk"), raw)

	require.NoError(t, p.Clear(ctx))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
