package layercache

import (
	"context"
	"errors"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/layercache/codec"
	"github.com/unkn0wn-root/layercache/internal/envelope"
	"github.com/unkn0wn-root/layercache/internal/keys"
	pr "github.com/unkn0wn-root/layercache/provider"
)

var errFormatMismatch = errors.New("serializer variant mismatch")

type store[V any] struct {
	name           string
	provider       pr.Provider
	codec          c.Codec[V]
	format         byte
	log            Logger
	hooks          Hooks
	defaultTTL     time.Duration
	policy         pr.TokenPolicy
	nativeTTL      bool
	computeSetCost SetCostFunc
	now            func() time.Time
}

var (
	_ Cache[struct{}]       = (*store[struct{}])(nil)
	_ EntryReader[struct{}] = (*store[struct{}])(nil)
)

func newStore[V any](opts Options[V]) (*store[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("layercache: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("layercache: codec is required")
	}
	if opts.DefaultTTL < 0 {
		return nil, fmt.Errorf("layercache: negative default ttl %s", opts.DefaultTTL)
	}

	s := &store[V]{
		provider:   opts.Provider,
		codec:      opts.Codec,
		format:     byte(c.FormatOf(opts.Codec)),
		defaultTTL: opts.DefaultTTL,
		nativeTTL:  pr.HasNativeTTL(opts.Provider),
		now:        clock(opts.Now),
	}

	// defaults
	s.name = coalesce(opts.Name, "store")
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.policy = opts.TokenPolicy
	if s.policy == pr.TokenDefault {
		s.policy = pr.PolicyOf(opts.Provider)
	}
	if opts.ComputeSetCost != nil {
		s.computeSetCost = opts.ComputeSetCost
	} else {
		s.computeSetCost = defaultCost
	}

	return s, nil
}

func (s *store[V]) Get(ctx context.Context, key string) (V, bool, error) {
	v, _, ok, err := s.Lookup(ctx, key)
	return v, ok, err
}

func (s *store[V]) GetOr(ctx context.Context, key string, def V) (V, error) {
	return getOr[V](ctx, s, key, def)
}

func (s *store[V]) Lookup(ctx context.Context, key string) (V, time.Duration, bool, error) {
	var zero V
	if err := validate(key); err != nil {
		return zero, 0, false, err
	}
	now := s.now()
	e, ok, err := s.read(ctx, key, now)
	if err != nil || !ok {
		return zero, 0, false, err
	}
	v, err := s.codec.Decode(e.Payload)
	if err != nil {
		return zero, 0, false, &SerializationError{Op: "decode", Key: key, Err: err}
	}
	return v, e.Remaining(now), true, nil
}

func (s *store[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	if ttl < 0 {
		return s.Delete(ctx, key)
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	payload, err := s.codec.Encode(value)
	if err != nil {
		return false, &SerializationError{Op: "encode", Key: key, Err: err}
	}
	tok := s.token(key)
	raw := envelope.Encode(s.format, payload, s.now(), ttl)
	ok, err := s.provider.Set(ctx, tok, raw, s.computeSetCost(tok, raw), ttl)
	if err != nil {
		s.backendError("set", tok, err)
		return false, nil
	}
	if !ok {
		s.hooks.ProviderSetRejected(tok)
		s.log.Debug("set rejected by provider (pressure)", Fields{"store": s.name, "token": tok})
		return false, nil
	}
	return true, nil
}

func (s *store[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	if s.nativeTTL {
		ok, err := s.provider.Exists(ctx, s.token(key))
		if err != nil {
			return false, &BackendOperationError{Op: "has", Key: key, Err: err}
		}
		return ok, nil
	}
	_, ok, err := s.read(ctx, key, s.now())
	return ok, err
}

func (s *store[V]) Delete(ctx context.Context, key string) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	tok := s.token(key)
	if err := s.provider.Del(ctx, tok); err != nil {
		s.backendError("delete", tok, err)
		return false, nil
	}
	return true, nil
}

func (s *store[V]) Clear(ctx context.Context) (bool, error) {
	if err := s.provider.Clear(ctx); err != nil {
		s.backendError("clear", "", err)
		return false, nil
	}
	return true, nil
}

func (s *store[V]) GetMultiple(ctx context.Context, keys []string, def V) ([]Item[V], error) {
	return getMultiple[V](ctx, s, keys, def)
}

func (s *store[V]) SetMultiple(ctx context.Context, items []Item[V], ttl time.Duration) (bool, error) {
	return setMultiple[V](ctx, s, items, ttl)
}

func (s *store[V]) DeleteMultiple(ctx context.Context, keys []string) (bool, error) {
	return deleteMultiple[V](ctx, s, keys)
}

func (s *store[V]) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

// read fetches and unframes the entry for key. Expired entries are removed
// from the provider and reported as a miss.
func (s *store[V]) read(ctx context.Context, key string, now time.Time) (envelope.Entry, bool, error) {
	tok := s.token(key)
	raw, ok, err := s.provider.Get(ctx, tok)
	if err != nil {
		return envelope.Entry{}, false, &BackendOperationError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return envelope.Entry{}, false, nil
	}
	e, err := envelope.Decode(raw)
	if err != nil {
		return envelope.Entry{}, false, &SerializationError{Op: "decode", Key: key, Err: err}
	}
	if s.format != 0 && e.Format != 0 && e.Format != s.format {
		err := fmt.Errorf("%w: stored %s, configured %s", errFormatMismatch, c.Format(e.Format), c.Format(s.format))
		return envelope.Entry{}, false, &SerializationError{Op: "decode", Key: key, Err: err}
	}
	if !e.Live(now) {
		s.expire(ctx, tok)
		return envelope.Entry{}, false, nil
	}
	return e, true, nil
}

func (s *store[V]) expire(ctx context.Context, tok string) {
	if err := s.provider.Del(ctx, tok); err != nil {
		s.log.Warn("lazy expiry delete failed", Fields{"store": s.name, "token": tok, "err": err})
		return
	}
	s.hooks.SelfHeal(tok, "expired")
	s.log.Debug("expired entry removed on read", Fields{"store": s.name, "token": tok})
}

func (s *store[V]) backendError(op, tok string, err error) {
	s.hooks.BackendError(op, tok, err)
	s.log.Warn("backend "+op+" failed", Fields{"store": s.name, "token": tok, "err": err})
}

func (s *store[V]) token(key string) string {
	if s.policy == pr.TokenHashed {
		return keys.Hash(key)
	}
	return keys.Escape(key)
}

func validate(key string) error {
	if err := keys.Validate(key); err != nil {
		return &InvalidKeyError{Key: key, Reason: err}
	}
	return nil
}
