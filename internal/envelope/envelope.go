// Package envelope frames a serialized value together with its creation time and TTL.
// Liveness is decided from the embedded timestamps only, never from a backend clock.
package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("layercache: corrupt envelope")
	magic4     = [...]byte{'L', 'Y', 'R', 'C'}
)

// Entry is a decoded envelope. Payload aliases the decoded buffer.
type Entry struct {
	Format    byte
	CreatedAt time.Time
	TTL       time.Duration // 0 => never expires
	Payload   []byte
}

// Live reports whether the entry is still valid at now.
func (e Entry) Live(now time.Time) bool {
	if e.TTL == 0 {
		return true
	}
	return now.Before(e.ExpiresAt())
}

// ExpiresAt returns the absolute expiry instant, or the zero time for infinite entries.
func (e Entry) ExpiresAt() time.Time {
	if e.TTL == 0 {
		return time.Time{}
	}
	return e.CreatedAt.Add(e.TTL)
}

// Remaining returns the TTL left at now: 0 for infinite entries, negative once expired.
func (e Entry) Remaining(now time.Time) time.Duration {
	if e.TTL == 0 {
		return 0
	}
	return e.ExpiresAt().Sub(now)
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload as:
//
//	magic(4) | ver(1) | format(1) | createdAt unix nanos (i64 be) | ttl nanos (i64 be) | vlen(u32 be) | payload(vlen)
func Encode(format byte, payload []byte, createdAt time.Time, ttl time.Duration) []byte {
	if ttl < 0 {
		ttl = 0
	}
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(format)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(createdAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(ttl))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses a frame produced by Encode. Trailing bytes are rejected.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}

	format := b[5]
	off := 6

	created := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	ttl := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	if ttl < 0 {
		return Entry{}, ErrCorrupt
	}

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Format:    format,
		CreatedAt: time.Unix(0, created),
		TTL:       time.Duration(ttl),
		Payload:   b[off : off+vlen],
	}, nil
}
