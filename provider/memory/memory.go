// Package memory is an in-process, non-evicting byte store. Entries live until
// deleted, cleared or found expired on access.
package memory

import (
	"context"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/layercache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type Provider struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

var (
	_ pr.Provider  = (*Provider)(nil)
	_ pr.NativeTTL = (*Provider)(nil)
)

type Config struct {
	// Now overrides the clock used for expiry. Defaults to time.Now.
	Now func() time.Time
}

func New(cfg Config) *Provider {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{m: make(map[string]entry), now: now}
}

func (p *Provider) NativeTTL() bool { return true }

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if p.expired(e) {
		p.evict(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.v...), true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = entry{v: append([]byte(nil), value...), exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Exists(_ context.Context, key string) (bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if ok && p.expired(e) {
		p.evict(key)
		return false, nil
	}
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Clear(_ context.Context) error {
	p.mu.Lock()
	p.m = make(map[string]entry)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Close(_ context.Context) error { return nil }

// Len returns the number of stored records, expired ones included.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

func (p *Provider) expired(e entry) bool {
	return !e.exp.IsZero() && !p.now().Before(e.exp)
}

// evict drops key only if it is still expired; a concurrent Set may have replaced it.
func (p *Provider) evict(key string) {
	p.mu.Lock()
	if e, ok := p.m[key]; ok && p.expired(e) {
		delete(p.m, key)
	}
	p.mu.Unlock()
}
