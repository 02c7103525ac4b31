// Package provider defines the storage abstraction used by layercache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a token (no prepended/appended
// metadata, no re-encoding, no mutation). If a store performs internal transforms
// (e.g., compression), they MUST be fully reversed so that the bytes returned by
// Get are identical to the bytes provided to Set.
//
// Tokens handed to a Provider are already validated and sanitized by the cache.
// Values are TTL envelopes; a provider may enforce the TTL natively or simply
// store the bytes and let the cache expire them lazily on read.
package provider

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable marks a fatal setup failure: the store is unreachable or misconfigured.
	ErrUnavailable = errors.New("provider: backend unavailable")
	// ErrUnexpectedType is returned when the underlying store hands back something other than bytes.
	ErrUnexpectedType = errors.New("provider: unexpected value type")
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, token string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, token string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Exists reports whether a record is stored under token.
	// Providers without NativeTTL may report expired records.
	Exists(ctx context.Context, token string) (bool, error)

	// Del removes a token. Deleting an absent token is not an error.
	Del(ctx context.Context, token string) error

	// Clear removes every record owned by this provider.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// NativeTTL is implemented by providers that enforce per-entry TTL themselves.
// For those, Exists never reports an expired record and the cache trusts it for Has.
type NativeTTL interface {
	NativeTTL() bool
}

// TokenPolicy selects how keys are mapped to tokens.
type TokenPolicy int

const (
	// TokenDefault lets the provider decide; falls back to TokenEscaped.
	TokenDefault TokenPolicy = iota
	// TokenEscaped keeps keys readable (query-escaped).
	TokenEscaped
	// TokenHashed maps keys to a fixed-width 128-bit hex digest.
	TokenHashed
)

// Tokenizer is implemented by providers whose medium constrains token shape.
type Tokenizer interface {
	TokenPolicy() TokenPolicy
}

// HasNativeTTL reports whether p enforces TTL natively.
func HasNativeTTL(p Provider) bool {
	n, ok := p.(NativeTTL)
	return ok && n.NativeTTL()
}

// PolicyOf returns p's preferred token policy, TokenEscaped if it has none.
func PolicyOf(p Provider) TokenPolicy {
	if t, ok := p.(Tokenizer); ok && t.TokenPolicy() != TokenDefault {
		return t.TokenPolicy()
	}
	return TokenEscaped
}
