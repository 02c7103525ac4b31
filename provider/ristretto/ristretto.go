// Package ristretto is a process-local shared-memory provider with native
// per-entry TTL and cost-based admission.
package ristretto

import (
	"context"
	"errors"
	"fmt"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/layercache/provider"
)

type Provider struct {
	c     *rc.Cache
	async bool
}

var (
	_ pr.Provider  = (*Provider)(nil)
	_ pr.NativeTTL = (*Provider)(nil)
)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// AsyncWrites skips waiting for buffered writes to be applied. Faster, but a
	// Get right after Set may miss.
	AsyncWrites bool
	// Cost in Ristretto is provided by the caller (the cache passes cost per Set).
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, fmt.Errorf("%w: ristretto: invalid config", pr.ErrUnavailable)
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, errors.Join(pr.ErrUnavailable, err)
	}
	return &Provider{c: c, async: cfg.AsyncWrites}, nil
}

func (p *Provider) NativeTTL() bool { return true }

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, isBytes := v.([]byte)
	if !isBytes {
		// drop the foreign entry so the next read is a clean miss
		p.c.Del(key)
		return nil, false, fmt.Errorf("%w: expected []byte, got %T", pr.ErrUnexpectedType, v)
	}
	return b, true, nil
}

// Set maps ttl <= 0 to ristretto's "no expiry" (ttl 0).
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok := p.c.SetWithTTL(key, value, cost, ttl)
	if ok && !p.async {
		p.c.Wait()
	}
	return ok, nil
}

func (p *Provider) Exists(_ context.Context, key string) (bool, error) {
	_, ok := p.c.Get(key)
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Clear(_ context.Context) error {
	p.c.Clear()
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
