package dsn

import (
	"github.com/unkn0wn-root/layercache/codec"
)

// DefaultSerializer is used when the DSN has no serializer parameter.
const DefaultSerializer = "safe"

// codecFor maps a serializer name to a codec for V.
// The gz* variants compress the inner serializer's output at maximum level:
// "gzdeflate" is a raw deflate stream, "gzip" a gzip member.
func codecFor[V any](name string) (codec.Codec[V], bool, error) {
	switch name {
	case "", "safe", "msgpack":
		return codec.Msgpack[V]{}, true, nil
	case "json":
		return codec.JSON[V]{}, true, nil
	case "cbor":
		c, err := codec.NewCBOR[V](false)
		return c, err == nil, err
	case "gzdeflate":
		return codec.NewCompressed[V](codec.Msgpack[V]{}, codec.Deflate), true, nil
	case "gzdeflate-json":
		return codec.NewCompressed[V](codec.JSON[V]{}, codec.Deflate), true, nil
	case "gzip":
		return codec.NewCompressed[V](codec.Msgpack[V]{}, codec.Gzip), true, nil
	case "gzip-json":
		return codec.NewCompressed[V](codec.JSON[V]{}, codec.Gzip), true, nil
	}
	return nil, false, nil
}
