// Package dsn builds caches from connection strings.
//
//	memory://
//	shared-local://?max_cost=67108864          (ristretto, alias apcu://)
//	bigcache://?life_window=10m&shards=256
//	file:///var/cache/app?serializer=gzdeflate
//	sqlite:///var/lib/app/cache.db?table=cache
//	postgres://user:pass@db:5432/app?driver=pq (alias pgsql://)
//	redis://:secret@localhost:6379/0?prefix=app:
//	null://
//
// Every scheme accepts serializer= (safe, msgpack, json, cbor, gzdeflate,
// gzdeflate-json, gzip, gzip-json); the default is safe (msgpack).
// Parameters consumed here are stripped before the rest of the DSN reaches a driver.
package dsn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/layercache"
	pr "github.com/unkn0wn-root/layercache/provider"
	"github.com/unkn0wn-root/layercache/provider/bigcache"
	"github.com/unkn0wn-root/layercache/provider/file"
	"github.com/unkn0wn-root/layercache/provider/memory"
	"github.com/unkn0wn-root/layercache/provider/null"
	"github.com/unkn0wn-root/layercache/provider/redis"
	"github.com/unkn0wn-root/layercache/provider/ristretto"
	"github.com/unkn0wn-root/layercache/provider/sqldb"
)

// ristretto defaults: cost is the record size in bytes.
const (
	defaultCounters = 1_000_000
	defaultMaxCost  = 64 << 20
	defaultBuffer   = 64
)

var ownParams = []string{
	"serializer", "table", "driver", "prefix",
	"counters", "max_cost", "buffer",
	"life_window", "shards", "max_mb",
}

var pgDrivers = map[string]string{
	"pgx": "pgx",
	"pq":  "postgres",
}

type backend struct {
	provider pr.Provider
	cost     layercache.SetCostFunc
}

// Open builds a single-backend cache for dsn.
// A malformed DSN yields *InvalidConfigError; a store that cannot be reached
// yields *layercache.BackendUnavailableError.
func Open[V any](ctx context.Context, dsn string, opts ...Option) (layercache.Cache[V], error) {
	return open[V](ctx, dsn, newConfig(opts))
}

// OpenLayered opens one tier per DSN, fastest first, and layers them.
// If any tier fails to open, the ones already opened are closed.
func OpenLayered[V any](ctx context.Context, dsns []string, opts ...Option) (layercache.Cache[V], error) {
	if len(dsns) == 0 {
		return nil, invalid("", "no tiers given", nil)
	}
	cfg := newConfig(opts)

	tiers := make([]layercache.Cache[V], 0, len(dsns))
	closeAll := func() {
		for _, t := range tiers {
			_ = t.Close(ctx)
		}
	}
	for _, d := range dsns {
		c, err := open[V](ctx, d, cfg)
		if err != nil {
			closeAll()
			return nil, err
		}
		tiers = append(tiers, c)
	}

	lc, err := layercache.NewLayered[V](layercache.LayeredOptions{
		Logger:       cfg.logger,
		Hooks:        cfg.hooks,
		BackfillTTL:  cfg.backfillTTL,
		PropagateTTL: cfg.propagateTTL,
	}, tiers...)
	if err != nil {
		closeAll()
		return nil, invalid(strings.Join(dsns, ","), "layered options", err)
	}
	return lc, nil
}

func open[V any](ctx context.Context, dsn string, cfg config) (layercache.Cache[V], error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, invalid(dsn, "malformed", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return nil, invalid(dsn, "missing scheme", nil)
	}
	q := u.Query()

	cd, ok, err := codecFor[V](q.Get("serializer"))
	if err != nil {
		return nil, invalid(dsn, "serializer", err)
	}
	if !ok {
		return nil, invalid(dsn, fmt.Sprintf("unknown serializer %q", q.Get("serializer")), nil)
	}

	b, err := openBackend(ctx, dsn, scheme, u, q, cfg)
	if err != nil {
		return nil, err
	}

	c, err := layercache.New[V](layercache.Options[V]{
		Provider:       b.provider,
		Codec:          cd,
		Logger:         cfg.logger,
		Hooks:          cfg.hooks,
		DefaultTTL:     cfg.defaultTTL,
		ComputeSetCost: b.cost,
		Now:            cfg.now,
		Name:           scheme,
	})
	if err != nil {
		_ = b.provider.Close(ctx)
		return nil, invalid(dsn, "store options", err)
	}
	return c, nil
}

func openBackend(ctx context.Context, dsn, scheme string, u *url.URL, q url.Values, cfg config) (backend, error) {
	switch scheme {
	case "memory", "array":
		return backend{provider: memory.New(memory.Config{Now: cfg.now})}, nil

	case "shared-local", "apcu":
		counters, err1 := intParam(q, "counters", defaultCounters)
		maxCost, err2 := intParam(q, "max_cost", defaultMaxCost)
		buffer, err3 := intParam(q, "buffer", defaultBuffer)
		if err := errors.Join(err1, err2, err3); err != nil {
			return backend{}, invalid(dsn, "ristretto parameters", err)
		}
		p, err := ristretto.New(ristretto.Config{
			NumCounters: int64(counters),
			MaxCost:     int64(maxCost),
			BufferItems: int64(buffer),
		})
		if err != nil {
			return backend{}, invalid(dsn, "ristretto parameters", err)
		}
		return backend{provider: p, cost: sizeCost}, nil

	case "bigcache":
		life, err1 := durationParam(q, "life_window")
		shards, err2 := intParam(q, "shards", 0)
		maxMB, err3 := intParam(q, "max_mb", 0)
		if err := errors.Join(err1, err2, err3); err != nil {
			return backend{}, invalid(dsn, "bigcache parameters", err)
		}
		p, err := bigcache.New(bigcache.Config{LifeWindow: life, Shards: shards, HardMaxCacheSizeMB: maxMB})
		if err != nil {
			return backend{}, invalid(dsn, "bigcache parameters", err)
		}
		return backend{provider: p}, nil

	case "file":
		dir := location(u)
		if dir == "" {
			return backend{}, invalid(dsn, "missing directory path", nil)
		}
		p, err := file.New(file.Config{Dir: dir})
		if err != nil {
			return backend{}, unavailable(scheme, err)
		}
		return backend{provider: p}, nil

	case "sqlite", "sqlite3", "pdo-sqlite":
		path := location(u)
		if path == "" {
			return backend{}, invalid(dsn, "missing database path", nil)
		}
		db, err := sql.Open("sqlite3", path)
		if err != nil {
			return backend{}, invalid(dsn, "sqlite", err)
		}
		if path == ":memory:" {
			// each pooled connection would see its own empty database
			db.SetMaxOpenConns(1)
		}
		return openSQL(ctx, dsn, scheme, db, sqldb.SQLite, q, cfg)

	case "postgres", "postgresql", "pgsql", "pdo-pgsql":
		name := q.Get("driver")
		if name == "" {
			name = "pgx"
		}
		driver, ok := pgDrivers[name]
		if !ok {
			return backend{}, invalid(dsn, fmt.Sprintf("unknown postgres driver %q", name), nil)
		}
		conn := strip(u)
		conn.Scheme = "postgres"
		db, err := sql.Open(driver, conn.String())
		if err != nil {
			return backend{}, invalid(dsn, "postgres", err)
		}
		return openSQL(ctx, dsn, scheme, db, sqldb.Postgres, q, cfg)

	case "redis", "rediss":
		opt, err := goredis.ParseURL(strip(u).String())
		if err != nil {
			return backend{}, invalid(dsn, "redis", err)
		}
		p, err := redis.New(redis.Config{
			Client:      goredis.NewClient(opt),
			KeyPrefix:   q.Get("prefix"),
			CloseClient: true,
		})
		if err != nil {
			return backend{}, invalid(dsn, "redis", err)
		}
		if err := p.Ping(ctx); err != nil {
			_ = p.Close(ctx)
			return backend{}, unavailable(scheme, err)
		}
		return backend{provider: p}, nil

	case "null":
		return backend{provider: null.New()}, nil
	}
	return backend{}, invalid(dsn, fmt.Sprintf("unknown scheme %q", scheme), nil)
}

func openSQL(ctx context.Context, dsn, scheme string, db *sql.DB, d sqldb.Dialect, q url.Values, cfg config) (backend, error) {
	p, err := sqldb.New(ctx, sqldb.Config{
		DB:      db,
		Dialect: d,
		Table:   q.Get("table"),
		Now:     cfg.now,
		CloseDB: true,
	})
	if err != nil {
		_ = db.Close()
		if errors.Is(err, sqldb.ErrInvalidTable) {
			return backend{}, invalid(dsn, "table", err)
		}
		return backend{}, unavailable(scheme, err)
	}
	return backend{provider: p}, nil
}

func unavailable(scheme string, err error) error {
	return &layercache.BackendUnavailableError{Backend: scheme, Err: err}
}

func sizeCost(_ string, raw []byte) int64 { return int64(len(raw)) }

// location returns the filesystem part of a path-style DSN:
// file:///abs/dir, file://./rel/dir or sqlite::memory:.
func location(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

// strip returns a copy of u without the parameters consumed by this package.
func strip(u *url.URL) *url.URL {
	c := *u
	q := c.Query()
	for _, k := range ownParams {
		q.Del(k)
	}
	c.RawQuery = q.Encode()
	return &c
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: want a non-negative integer, got %q", name, s)
	}
	return n, nil
}

func durationParam(q url.Values, name string) (time.Duration, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<malformed>"
	}
	return u.Redacted()
}
