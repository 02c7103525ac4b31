package layercache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	c "github.com/unkn0wn-root/layercache/codec"
	pr "github.com/unkn0wn-root/layercache/provider"
)

// memProvider stores raw bytes and never expires anything itself, so the
// envelope is the only source of expiry unless native is set.
type memProvider struct {
	mu     sync.Mutex
	m      map[string][]byte
	native bool
	policy pr.TokenPolicy

	getErr, setErr, delErr, clearErr error
	reject                           func(tok string) bool

	gets, sets, dels int
}

var (
	_ pr.Provider  = (*memProvider)(nil)
	_ pr.NativeTTL = (*memProvider)(nil)
	_ pr.Tokenizer = (*memProvider)(nil)
)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) NativeTTL() bool             { return p.native }
func (p *memProvider) TokenPolicy() pr.TokenPolicy { return p.policy }

func (p *memProvider) Get(_ context.Context, tok string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	if p.getErr != nil {
		return nil, false, p.getErr
	}
	v, ok := p.m[tok]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, tok string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets++
	if p.setErr != nil {
		return false, p.setErr
	}
	if p.reject != nil && p.reject(tok) {
		return false, nil
	}
	p.m[tok] = append([]byte(nil), value...)
	return true, nil
}

func (p *memProvider) Exists(_ context.Context, tok string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return false, p.getErr
	}
	_, ok := p.m[tok]
	return ok, nil
}

func (p *memProvider) Del(_ context.Context, tok string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dels++
	if p.delErr != nil {
		return p.delErr
	}
	delete(p.m, tok)
	return nil
}

func (p *memProvider) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clearErr != nil {
		return p.clearErr
	}
	p.m = make(map[string][]byte)
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

func (p *memProvider) calls() (gets, sets, dels int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gets, p.sets, p.dels
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recHooks struct {
	NopHooks
	mu     sync.Mutex
	events []string
}

func (h *recHooks) add(format string, args ...any) {
	h.mu.Lock()
	h.events = append(h.events, fmt.Sprintf(format, args...))
	h.mu.Unlock()
}

func (h *recHooks) SelfHeal(_, reason string)          { h.add("self_heal:%s", reason) }
func (h *recHooks) ProviderSetRejected(string)         { h.add("set_rejected") }
func (h *recHooks) BackendError(op, _ string, _ error) { h.add("backend_error:%s", op) }
func (h *recHooks) Backfilled(tier int, key string)    { h.add("backfilled:%d:%s", tier, key) }
func (h *recHooks) BackfillFailed(tier int, key string, _ error) {
	h.add("backfill_failed:%d:%s", tier, key)
}
func (h *recHooks) TierFailed(tier int, op string, _ error) { h.add("tier_failed:%d:%s", tier, op) }

func (h *recHooks) has(ev string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.events {
		if e == ev {
			return true
		}
	}
	return false
}

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T, p pr.Provider, clk *fakeClock, optsOpt func(*Options[user])) Cache[user] {
	t.Helper()
	opts := Options[user]{
		Provider: p,
		Codec:    c.JSON[user]{},
		Now:      clk.Now,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	cc, err := New[user](opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cc
}

// brokenTier fails every call with err.
type brokenTier struct {
	err   error
	calls int
}

var _ Cache[user] = (*brokenTier)(nil)

func (b *brokenTier) Get(context.Context, string) (user, bool, error) {
	b.calls++
	return user{}, false, b.err
}
func (b *brokenTier) GetOr(_ context.Context, _ string, def user) (user, error) {
	b.calls++
	return def, b.err
}
func (b *brokenTier) Set(context.Context, string, user, time.Duration) (bool, error) {
	b.calls++
	return false, b.err
}
func (b *brokenTier) Has(context.Context, string) (bool, error) {
	b.calls++
	return false, b.err
}
func (b *brokenTier) Delete(context.Context, string) (bool, error) {
	b.calls++
	return false, b.err
}
func (b *brokenTier) Clear(context.Context) (bool, error) {
	b.calls++
	return false, b.err
}
func (b *brokenTier) GetMultiple(context.Context, []string, user) ([]Item[user], error) {
	b.calls++
	return nil, b.err
}
func (b *brokenTier) SetMultiple(context.Context, []Item[user], time.Duration) (bool, error) {
	b.calls++
	return false, b.err
}
func (b *brokenTier) DeleteMultiple(context.Context, []string) (bool, error) {
	b.calls++
	return false, b.err
}
func (b *brokenTier) Close(context.Context) error { return b.err }
