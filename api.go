package layercache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/layercache/codec"
	pr "github.com/unkn0wn-root/layercache/provider"
)

type SetCostFunc func(token string, raw []byte) int64

// Cache is the uniform key/value contract shared by every backend store and by
// the layered cache. V is the caller's value type.
//
// A miss is a return value, not an error: Get reports ok=false and GetOr returns
// the supplied default. Errors are reserved for invalid keys, serialization
// failures and (for reads) backend faults.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	GetOr(ctx context.Context, key string, def V) (V, error)
	// Set stores value under key. ttl == 0 uses the store DefaultTTL (never expires
	// when unset); ttl < 0 deletes the key.
	Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) (bool, error)

	// Batch (every key is attempted; results keep input order)
	GetMultiple(ctx context.Context, keys []string, def V) ([]Item[V], error)
	SetMultiple(ctx context.Context, items []Item[V], ttl time.Duration) (bool, error)
	DeleteMultiple(ctx context.Context, keys []string) (bool, error)

	Close(ctx context.Context) error
}

// Item is one key/value pair of a batch call.
// Found is false when GetMultiple missed and Value holds the default.
type Item[V any] struct {
	Key   string
	Value V
	Found bool
}

// EntryReader is implemented by caches that can report an entry's remaining TTL.
// The layered cache uses it to propagate TTLs when back-populating.
type EntryReader[V any] interface {
	// Lookup returns the value and its remaining TTL (0 => never expires).
	Lookup(ctx context.Context, key string) (v V, ttl time.Duration, ok bool, err error)
}

// Options tune a single-backend store.
// Only Provider and Codec are required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Provider pr.Provider
	Codec    c.Codec[V]

	Logger         Logger         // if nil, NopLogger is used
	Hooks          Hooks          // if nil, NopHooks is used
	DefaultTTL     time.Duration  // used when Set gets ttl == 0; 0 => never expire
	TokenPolicy    pr.TokenPolicy // TokenDefault => provider preference
	ComputeSetCost SetCostFunc    // default 1
	Now            func() time.Time
	Name           string // label used in logs; default "store"
}

// New returns a cache backed by a single provider.
func New[V any](opts Options[V]) (Cache[V], error) {
	return newStore[V](opts)
}

// LayeredOptions tune a layered cache.
type LayeredOptions struct {
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// BackfillTTL is the TTL written to faster tiers on back-population.
	// 0 => the back-filled copy never expires.
	BackfillTTL time.Duration

	// PropagateTTL forwards the hitting tier's remaining TTL to back-filled tiers
	// when that tier implements EntryReader. Falls back to BackfillTTL otherwise.
	PropagateTTL bool
}

// NewLayered composes tiers ordered fastest first. The order is authoritative
// and fixed for the lifetime of the cache.
func NewLayered[V any](opts LayeredOptions, tiers ...Cache[V]) (Cache[V], error) {
	return newLayered[V](opts, tiers)
}
