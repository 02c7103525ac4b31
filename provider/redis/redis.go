// Package redis is a remote key-value provider backed by go-redis v9.
// TTL is enforced by the server.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/layercache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const scanBatch = 512

type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
}

var (
	_ pr.Provider  = (*Redis)(nil)
	_ pr.NativeTTL = (*Redis)(nil)
)

type Config struct {
	Client goredis.UniversalClient
	// KeyPrefix namespaces every token. With a prefix, Clear removes only the
	// prefixed keys; without one it flushes the selected database.
	KeyPrefix   string
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, prefix: cfg.KeyPrefix, closeClient: cfg.CloseClient}, nil
}

// Ping checks the server is reachable; failures wrap provider.ErrUnavailable.
func (p *Redis) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return errors.Join(pr.ErrUnavailable, err)
	}
	return nil
}

func (p *Redis) NativeTTL() bool { return true }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // plain SET drops any previous expiry, so the key persists
	}

	err := p.rdb.Set(ctx, p.prefix+key, value, ttl).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := p.rdb.Exists(ctx, p.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.prefix+key).Err()
}

func (p *Redis) Clear(ctx context.Context) error {
	if p.prefix == "" {
		return p.rdb.FlushDB(ctx).Err()
	}
	var cursor uint64
	for {
		batch, next, err := p.rdb.Scan(ctx, cursor, p.prefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := p.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
