// Package asynchook moves hook delivery off the cache's hot path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample: ~every 10th lazy expiry
//	})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := layercache.NewLayered[User](layercache.LayeredOptions{Hooks: hooks}, l1, l2)
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/layercache"
)

// Hooks queues events for a pool of workers. When the queue is full the event
// is dropped and counted; the caller never blocks.
type Hooks struct {
	inner   layercache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ layercache.Hooks = (*Hooks)(nil)

func New(inner layercache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = layercache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) SelfHeal(tok, reason string) { h.try(func() { h.inner.SelfHeal(tok, reason) }) }
func (h *Hooks) ProviderSetRejected(tok string) {
	h.try(func() { h.inner.ProviderSetRejected(tok) })
}
func (h *Hooks) BackendError(op, tok string, err error) {
	h.try(func() { h.inner.BackendError(op, tok, err) })
}
func (h *Hooks) Backfilled(tier int, key string) { h.try(func() { h.inner.Backfilled(tier, key) }) }
func (h *Hooks) BackfillFailed(tier int, key string, err error) {
	h.try(func() { h.inner.BackfillFailed(tier, key, err) })
}
func (h *Hooks) TierFailed(tier int, op string, err error) {
	h.try(func() { h.inner.TierFailed(tier, op, err) })
}
