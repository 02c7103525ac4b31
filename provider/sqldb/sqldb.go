// Package sqldb stores records in a relational table through database/sql.
//
// Schema (created on first use):
//
//	id         VARCHAR(32) PRIMARY KEY  -- hashed token
//	data       BLOB / BYTEA             -- envelope bytes
//	expires_at BIGINT                   -- unix millis, 0 => never
//
// Expired rows are filtered out on read and dropped by Purge.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	pr "github.com/unkn0wn-root/layercache/provider"
)

// Dialect selects placeholder and column-type syntax.
type Dialect int

const (
	SQLite Dialect = iota + 1
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

const DefaultTable = "cache"

var (
	ErrNilDB        = errors.New("sqldb provider: nil db")
	ErrInvalidTable = errors.New("sqldb provider: invalid table name")

	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
)

type Provider struct {
	db      *sql.DB
	dialect Dialect
	closeDB bool
	now     func() time.Time
	q       queries
}

var (
	_ pr.Provider  = (*Provider)(nil)
	_ pr.NativeTTL = (*Provider)(nil)
	_ pr.Tokenizer = (*Provider)(nil)
)

type Config struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string           // default "cache"
	Now     func() time.Time // expiry clock; default time.Now
	CloseDB bool             // set true only if this provider exclusively owns the pool
}

type queries struct {
	create, get, exists, set, del, clear, purge string
}

// New pings the database and creates the table if needed.
// Connectivity failures wrap provider.ErrUnavailable.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.DB == nil {
		return nil, ErrNilDB
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	if cfg.Dialect != SQLite && cfg.Dialect != Postgres {
		return nil, fmt.Errorf("sqldb provider: unsupported dialect %d", cfg.Dialect)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	p := &Provider{
		db:      cfg.DB,
		dialect: cfg.Dialect,
		closeDB: cfg.CloseDB,
		now:     now,
		q:       buildQueries(cfg.Dialect, table),
	}

	if err := p.db.PingContext(ctx); err != nil {
		return nil, errors.Join(pr.ErrUnavailable, fmt.Errorf("sqldb: ping: %w", err))
	}
	if _, err := p.db.ExecContext(ctx, p.q.create); err != nil {
		return nil, errors.Join(pr.ErrUnavailable, fmt.Errorf("sqldb: migrate: %w", err))
	}
	return p, nil
}

func buildQueries(d Dialect, table string) queries {
	blob := "BLOB"
	if d == Postgres {
		blob = "BYTEA"
	}
	live := "(expires_at = 0 OR expires_at > ?)"
	q := queries{
		create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(32) PRIMARY KEY,
			data %s NOT NULL,
			expires_at BIGINT NOT NULL DEFAULT 0
		)`, table, blob),
		get:    fmt.Sprintf(`SELECT data FROM %s WHERE id = ? AND %s`, table, live),
		exists: fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ? AND %s`, table, live),
		set: fmt.Sprintf(`INSERT INTO %s (id, data, expires_at) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`, table),
		del:   fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table),
		clear: fmt.Sprintf(`DELETE FROM %s`, table),
		purge: fmt.Sprintf(`DELETE FROM %s WHERE expires_at <> 0 AND expires_at <= ?`, table),
	}
	if d == Postgres {
		q.get, q.exists, q.set, q.del, q.purge = rebind(q.get), rebind(q.exists), rebind(q.set), rebind(q.del), rebind(q.purge)
	}
	return q
}

// rebind rewrites ? placeholders to $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (p *Provider) NativeTTL() bool { return true }

// TokenPolicy asks for hashed tokens so ids fit the fixed-width key column.
func (p *Provider) TokenPolicy() pr.TokenPolicy { return pr.TokenHashed }

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, p.q.get, key, p.nowMillis()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp int64
	if ttl > 0 {
		exp = p.now().Add(ttl).UnixMilli()
	}
	if _, err := p.db.ExecContext(ctx, p.q.set, key, value, exp); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := p.db.QueryRowContext(ctx, p.q.exists, key, p.nowMillis()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, p.q.del, key)
	return err
}

func (p *Provider) Clear(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, p.q.clear)
	return err
}

// Purge deletes expired rows and reports how many were removed.
// Reads already ignore them; call this to reclaim space.
func (p *Provider) Purge(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, p.q.purge, p.nowMillis())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *Provider) Close(context.Context) error {
	if p.closeDB {
		return p.db.Close()
	}
	return nil
}

func (p *Provider) nowMillis() int64 { return p.now().UnixMilli() }
