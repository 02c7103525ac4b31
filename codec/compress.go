package codec

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
)

// Algo selects the compression pass applied by Compressed.
type Algo uint8

const (
	None Algo = iota
	Gzip
	Deflate
)

// DefaultLevel is used when Compressed.Level is 0.
const DefaultLevel = flate.BestCompression

var ErrNotCompressed = errors.New("codec: payload is not compressed with the configured algorithm")

func (a Algo) String() string {
	switch a {
	case Gzip:
		return "gzip"
	case Deflate:
		return "deflate"
	default:
		return "none"
	}
}

// Compressed wraps Inner's output in a gzip or raw deflate stream.
// Level 0 means DefaultLevel. Decode fails on input that was not produced
// with the same algorithm.
type Compressed[V any] struct {
	Inner Codec[V]
	Algo  Algo
	Level int
}

var _ Codec[struct{}] = Compressed[struct{}]{}

// NewCompressed returns a Compressed codec with DefaultLevel.
func NewCompressed[V any](inner Codec[V], algo Algo) Compressed[V] {
	return Compressed[V]{Inner: inner, Algo: algo, Level: DefaultLevel}
}

func (c Compressed[V]) Encode(v V) ([]byte, error) {
	raw, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	level := c.Level
	if level == 0 {
		level = DefaultLevel
	}

	var buf bytes.Buffer
	var w io.WriteCloser
	switch c.Algo {
	case Gzip:
		w, err = gzip.NewWriterLevel(&buf, level)
	case Deflate:
		w, err = flate.NewWriter(&buf, level)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Compressed[V]) Decode(b []byte) (V, error) {
	var zero V
	var r io.ReadCloser
	switch c.Algo {
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return zero, fmt.Errorf("%w: %v", ErrNotCompressed, err)
		}
		r = gr
	case Deflate:
		r = flate.NewReader(bytes.NewReader(b))
	default:
		return c.Inner.Decode(b)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrNotCompressed, err)
	}
	return c.Inner.Decode(raw)
}

func (c Compressed[V]) Format() Format {
	f := FormatOf(c.Inner)
	switch c.Algo {
	case Gzip:
		f |= formatGzip
	case Deflate:
		f |= formatDeflate
	}
	return f
}
