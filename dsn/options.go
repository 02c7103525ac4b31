package dsn

import (
	"time"

	"github.com/unkn0wn-root/layercache"
)

// Option tunes caches built by Open and OpenLayered.
type Option func(*config)

type config struct {
	logger       layercache.Logger
	hooks        layercache.Hooks
	defaultTTL   time.Duration
	now          func() time.Time
	backfillTTL  time.Duration
	propagateTTL bool
}

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func WithLogger(l layercache.Logger) Option { return func(c *config) { c.logger = l } }
func WithHooks(h layercache.Hooks) Option   { return func(c *config) { c.hooks = h } }

// WithDefaultTTL sets the TTL used when Set is called with ttl == 0.
func WithDefaultTTL(d time.Duration) Option { return func(c *config) { c.defaultTTL = d } }

// WithNow overrides the clock of every store (and of providers that keep their own).
func WithNow(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithBackfillTTL sets the TTL of copies written into faster tiers by OpenLayered.
func WithBackfillTTL(d time.Duration) Option { return func(c *config) { c.backfillTTL = d } }

// WithPropagateTTL makes OpenLayered back-fill with the hitting tier's remaining TTL.
func WithPropagateTTL(on bool) Option { return func(c *config) { c.propagateTTL = on } }
