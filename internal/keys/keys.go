package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
)

// MaxLength is the longest key accepted, in bytes.
const MaxLength = 512

var (
	ErrEmpty   = errors.New("empty key is not allowed")
	ErrTooLong = errors.New("key is too long")
)

// Validate checks the key length bounds (1..MaxLength bytes).
func Validate(key string) error {
	switch {
	case len(key) == 0:
		return ErrEmpty
	case len(key) > MaxLength:
		return ErrTooLong
	}
	return nil
}

// Escape returns the query-escaped form of key. It is injective, so distinct
// keys never share a token.
func Escape(key string) string {
	return url.QueryEscape(key)
}

// Hash returns the first 128 bits of SHA-256(key) as 32 hex chars.
// Used where the medium constrains token length or charset (file names, fixed-width columns).
func Hash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}
