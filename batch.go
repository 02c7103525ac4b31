package layercache

import (
	"context"
	"errors"
	"time"
)

// single is the slice of Cache the batch helpers fan out over.
type single[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
}

func getOr[V any](ctx context.Context, s single[V], key string, def V) (V, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// validateAll rejects the whole batch before any backend is touched.
func validateAll(keys []string) error {
	for _, k := range keys {
		if err := validate(k); err != nil {
			return err
		}
	}
	return nil
}

func getMultiple[V any](ctx context.Context, s single[V], keys []string, def V) ([]Item[V], error) {
	if err := validateAll(keys); err != nil {
		return nil, err
	}
	out := make([]Item[V], 0, len(keys))
	var errs []error
	for _, k := range keys {
		v, ok, err := s.Get(ctx, k)
		if err != nil {
			errs = append(errs, err)
		}
		if !ok {
			v = def
		}
		out = append(out, Item[V]{Key: k, Value: v, Found: ok})
	}
	return out, errors.Join(errs...)
}

func setMultiple[V any](ctx context.Context, s single[V], items []Item[V], ttl time.Duration) (bool, error) {
	for _, it := range items {
		if err := validate(it.Key); err != nil {
			return false, err
		}
	}
	result := true
	var errs []error
	for _, it := range items {
		ok, err := s.Set(ctx, it.Key, it.Value, ttl)
		if err != nil {
			errs = append(errs, err)
		}
		// no short-circuit: every key gets its write
		result = ok && err == nil && result
	}
	return result, errors.Join(errs...)
}

func deleteMultiple[V any](ctx context.Context, s single[V], keys []string) (bool, error) {
	if err := validateAll(keys); err != nil {
		return false, err
	}
	result := true
	var errs []error
	for _, k := range keys {
		ok, err := s.Delete(ctx, k)
		if err != nil {
			errs = append(errs, err)
		}
		result = ok && err == nil && result
	}
	return result, errors.Join(errs...)
}
