// Package file stores one file per token on a go-billy filesystem.
//
// The medium has no notion of expiry: records are written as-is and the cache
// envelope decides liveness on read. Writes go to a temp file first and are
// renamed into place, so readers never observe a partial record.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	pr "github.com/unkn0wn-root/layercache/provider"
)

const (
	root      = "/"
	tmpPrefix = ".tmp-"
)

type Provider struct {
	fs billy.Filesystem
}

var (
	_ pr.Provider  = (*Provider)(nil)
	_ pr.Tokenizer = (*Provider)(nil)
)

type Config struct {
	// Dir is the cache directory on the local disk. Created if missing.
	// Ignored when FS is set.
	Dir string
	// FS overrides the filesystem; it is used as the cache root.
	FS billy.Filesystem
}

// New opens the store and checks that it is writable.
// Setup failures wrap provider.ErrUnavailable.
func New(cfg Config) (*Provider, error) {
	fs := cfg.FS
	if fs == nil {
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: file: directory is required", pr.ErrUnavailable)
		}
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, errors.Join(pr.ErrUnavailable, err)
		}
		fs = osfs.New(cfg.Dir)
	}

	// probe
	f, err := util.TempFile(fs, root, tmpPrefix)
	if err != nil {
		return nil, errors.Join(pr.ErrUnavailable, fmt.Errorf("file: directory not writable: %w", err))
	}
	name := f.Name()
	_ = f.Close()
	_ = fs.Remove(name)

	return &Provider{fs: fs}, nil
}

// TokenPolicy asks for fixed-width hashed tokens so every key is a safe file name.
func (p *Provider) TokenPolicy() pr.TokenPolicy { return pr.TokenHashed }

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := util.ReadFile(p.fs, p.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	f, err := util.TempFile(p.fs, root, tmpPrefix)
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	if _, err := f.Write(value); err != nil {
		_ = f.Close()
		_ = p.fs.Remove(tmp)
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = p.fs.Remove(tmp)
		return false, err
	}
	if err := p.fs.Rename(tmp, p.path(key)); err != nil {
		_ = p.fs.Remove(tmp)
		return false, err
	}
	return true, nil
}

func (p *Provider) Exists(_ context.Context, key string) (bool, error) {
	_, err := p.fs.Stat(p.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.fs.Remove(p.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every regular file in the cache root, leftover temp files included.
func (p *Provider) Clear(_ context.Context) error {
	infos, err := p.fs.ReadDir(root)
	if err != nil {
		return err
	}
	var errs []error
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		if err := p.fs.Remove(p.fs.Join(root, fi.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Provider) Close(context.Context) error { return nil }

func (p *Provider) path(key string) string {
	return p.fs.Join(root, strings.TrimPrefix(key, root))
}
