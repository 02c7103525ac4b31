package envelope

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

var t0 = time.Unix(1_700_000_000, 123)

func mustDecode(t *testing.T, b []byte) Entry {
	t.Helper()
	e, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return e
}

func TestRoundTripEmptyAndNonEmpty(t *testing.T) {
	cases := []struct {
		format  byte
		payload []byte
		ttl     time.Duration
	}{
		{0, nil, 0},
		{2, []byte("hello"), time.Second},
		{0x43, []byte{0, 1, 2, 3, 4}, 24 * time.Hour},
	}
	for _, tc := range cases {
		enc := Encode(tc.format, tc.payload, t0, tc.ttl)
		e := mustDecode(t, enc)
		if e.Format != tc.format {
			t.Fatalf("format mismatch: got %x want %x", e.Format, tc.format)
		}
		if !e.CreatedAt.Equal(t0) {
			t.Fatalf("createdAt mismatch: got %v want %v", e.CreatedAt, t0)
		}
		if e.TTL != tc.ttl {
			t.Fatalf("ttl mismatch: got %v want %v", e.TTL, tc.ttl)
		}
		if !bytes.Equal(e.Payload, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", e.Payload, tc.payload)
		}
	}
}

func TestLiveness(t *testing.T) {
	e := mustDecode(t, Encode(0, []byte("v"), t0, time.Second))

	if !e.Live(t0) {
		t.Fatalf("entry should be live at creation")
	}
	if !e.Live(t0.Add(999 * time.Millisecond)) {
		t.Fatalf("entry should be live before ttl elapses")
	}
	if e.Live(t0.Add(time.Second)) {
		t.Fatalf("entry must be expired exactly at createdAt+ttl")
	}
	if got := e.Remaining(t0.Add(400 * time.Millisecond)); got != 600*time.Millisecond {
		t.Fatalf("Remaining = %v, want 600ms", got)
	}
}

func TestInfiniteNeverExpires(t *testing.T) {
	e := mustDecode(t, Encode(0, []byte("v"), t0, 0))
	if !e.Live(t0.Add(100 * 365 * 24 * time.Hour)) {
		t.Fatalf("ttl=0 must never expire")
	}
	if !e.ExpiresAt().IsZero() || e.Remaining(t0) != 0 {
		t.Fatalf("infinite entry should have no expiry instant")
	}
}

func TestNegativeTTLEncodesAsInfinite(t *testing.T) {
	e := mustDecode(t, Encode(0, nil, t0, -time.Second))
	if e.TTL != 0 {
		t.Fatalf("negative ttl should be clamped to 0, got %v", e.TTL)
	}
}

func TestRejectsTrailingBytes(t *testing.T) {
	enc := Encode(1, []byte("x"), t0, 0)
	enc = append(enc, 0xDE, 0xAD)
	if _, err := Decode(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestCorruptHeadersAndLengths(t *testing.T) {
	enc := Encode(1, []byte("abc"), t0, time.Minute)

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := Decode(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := Decode(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	// ttl lives at offset 14..21 (4 magic +1 ver +1 format +8 created)
	negTTL := append([]byte(nil), enc...)
	binary.BigEndian.PutUint64(negTTL[14:22], ^uint64(0))
	if _, err := Decode(negTTL); err == nil {
		t.Fatalf("expected error on negative ttl")
	}

	// vlen at offset 22..25
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[22:26], uint32(len("abc")+1))
	if _, err := Decode(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	if _, err := Decode(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, err := Decode([]byte("not-an-envelope")); err == nil {
		t.Fatalf("expected error on garbage")
	}
}

func TestZeroCopyPayload(t *testing.T) {
	enc := Encode(0, []byte("Z"), t0, 0)
	e := mustDecode(t, enc)
	e.Payload[0] = 'Q'
	if mustDecode(t, enc).Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}
