package layercache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errTierRejected = errors.New("tier reported failure")

// layered chains tiers fastest first. Reads fall through until a tier hits and
// back-populate every tier scanned before it; writes go to all tiers.
// The tier slice is never mutated after construction.
type layered[V any] struct {
	tiers        []Cache[V]
	log          Logger
	hooks        Hooks
	backfillTTL  time.Duration
	propagateTTL bool
}

var (
	_ Cache[struct{}]       = (*layered[struct{}])(nil)
	_ EntryReader[struct{}] = (*layered[struct{}])(nil)
)

func newLayered[V any](opts LayeredOptions, tiers []Cache[V]) (*layered[V], error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("layercache: at least one tier is required")
	}
	for i, t := range tiers {
		if t == nil {
			return nil, fmt.Errorf("layercache: tier %d is nil", i)
		}
	}
	if opts.BackfillTTL < 0 {
		return nil, fmt.Errorf("layercache: negative backfill ttl %s", opts.BackfillTTL)
	}

	l := &layered[V]{
		tiers:        append([]Cache[V](nil), tiers...),
		backfillTTL:  opts.BackfillTTL,
		propagateTTL: opts.PropagateTTL,
	}
	l.log = coalesce[Logger](opts.Logger, NopLogger{})
	l.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return l, nil
}

func (l *layered[V]) Get(ctx context.Context, key string) (V, bool, error) {
	v, _, ok, err := l.Lookup(ctx, key)
	return v, ok, err
}

func (l *layered[V]) GetOr(ctx context.Context, key string, def V) (V, error) {
	return getOr[V](ctx, l, key, def)
}

// Lookup scans the tiers in order. The first hit wins and is copied into every
// tier scanned before it. A tier error stops the scan: it signals a fault, not a miss.
// The returned TTL is the hitting tier's remaining TTL when known, BackfillTTL otherwise.
func (l *layered[V]) Lookup(ctx context.Context, key string) (V, time.Duration, bool, error) {
	var zero V
	if err := validate(key); err != nil {
		return zero, 0, false, err
	}
	for i, t := range l.tiers {
		v, ttl, ok, err := l.read(ctx, t, key)
		if err != nil {
			return zero, 0, false, err
		}
		if !ok {
			continue
		}
		l.backfill(ctx, key, v, ttl, i)
		return v, ttl, true, nil
	}
	return zero, 0, false, nil
}

func (l *layered[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	for i, t := range l.tiers {
		ok, err := t.Has(ctx, key)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		if i > 0 {
			v, ttl, found, err := l.read(ctx, t, key)
			if err != nil {
				return false, err
			}
			// entry may have expired between Has and read; nothing to copy then
			if found {
				l.backfill(ctx, key, v, ttl, i)
			}
		}
		return true, nil
	}
	return false, nil
}

func (l *layered[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	return l.fanOut("set", func(t Cache[V]) (bool, error) {
		return t.Set(ctx, key, value, ttl)
	})
}

func (l *layered[V]) Delete(ctx context.Context, key string) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	return l.fanOut("delete", func(t Cache[V]) (bool, error) {
		return t.Delete(ctx, key)
	})
}

func (l *layered[V]) Clear(ctx context.Context) (bool, error) {
	return l.fanOut("clear", func(t Cache[V]) (bool, error) {
		return t.Clear(ctx)
	})
}

func (l *layered[V]) GetMultiple(ctx context.Context, keys []string, def V) ([]Item[V], error) {
	return getMultiple[V](ctx, l, keys, def)
}

func (l *layered[V]) SetMultiple(ctx context.Context, items []Item[V], ttl time.Duration) (bool, error) {
	return setMultiple[V](ctx, l, items, ttl)
}

func (l *layered[V]) DeleteMultiple(ctx context.Context, keys []string) (bool, error) {
	return deleteMultiple[V](ctx, l, keys)
}

func (l *layered[V]) Close(ctx context.Context) error {
	var errs []error
	for i, t := range l.tiers {
		if err := t.Close(ctx); err != nil {
			l.hooks.TierFailed(i, "close", err)
			errs = append(errs, fmt.Errorf("tier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (l *layered[V]) read(ctx context.Context, t Cache[V], key string) (V, time.Duration, bool, error) {
	if l.propagateTTL {
		if er, ok := t.(EntryReader[V]); ok {
			return er.Lookup(ctx, key)
		}
	}
	v, ok, err := t.Get(ctx, key)
	return v, l.backfillTTL, ok, err
}

// backfill writes v into tiers [0, hit). Failures are reported but never fail the read.
func (l *layered[V]) backfill(ctx context.Context, key string, v V, ttl time.Duration, hit int) {
	for i := 0; i < hit; i++ {
		ok, err := l.tiers[i].Set(ctx, key, v, ttl)
		if err == nil && !ok {
			err = errTierRejected
		}
		if err != nil {
			l.hooks.BackfillFailed(i, key, err)
			l.log.Warn("back-population failed", Fields{"tier": i, "source": hit, "key": key, "err": err})
			continue
		}
		l.hooks.Backfilled(i, key)
	}
	if hit > 0 {
		l.log.Debug("back-populated faster tiers", Fields{"key": key, "source": hit, "ttl": ttl})
	}
}

// fanOut runs fn on every tier in order, regardless of earlier failures.
// The result is the AND of all tiers; tier errors are joined.
func (l *layered[V]) fanOut(op string, fn func(Cache[V]) (bool, error)) (bool, error) {
	result := true
	var errs []error
	for i, t := range l.tiers {
		ok, err := fn(t)
		switch {
		case err != nil:
			l.hooks.TierFailed(i, op, err)
			errs = append(errs, fmt.Errorf("tier %d: %w", i, err))
		case !ok:
			l.hooks.TierFailed(i, op, errTierRejected)
			l.log.Warn("tier "+op+" failed", Fields{"tier": i})
		}
		result = ok && err == nil && result
	}
	return result, errors.Join(errs...)
}
