package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Format identifies a serializer variant inside the cache envelope.
// The low nibble names the serializer, the high bits the compression pass.
// FormatCustom (0) disables variant checks for codecs that do not report one.
type Format uint8

const (
	FormatCustom  Format = 0
	FormatRaw     Format = 1
	FormatJSON    Format = 2
	FormatMsgpack Format = 3
	FormatCBOR    Format = 4
	FormatProto   Format = 5

	formatGzip    Format = 0x40
	formatDeflate Format = 0x80
	formatMask    Format = 0x0F
)

// Formatter is implemented by codecs that tag their output in the envelope.
type Formatter interface {
	Format() Format
}

// FormatOf returns c's format tag, or FormatCustom when c does not report one.
func FormatOf(c any) Format {
	if f, ok := c.(Formatter); ok {
		return f.Format()
	}
	return FormatCustom
}

// Serializer returns the serializer part of f with any compression bits cleared.
func (f Format) Serializer() Format { return f & formatMask }

// Compression returns the compression algorithm encoded in f.
func (f Format) Compression() Algo {
	switch {
	case f&formatGzip != 0:
		return Gzip
	case f&formatDeflate != 0:
		return Deflate
	default:
		return None
	}
}

func (f Format) String() string {
	var s string
	switch f.Serializer() {
	case FormatRaw:
		s = "raw"
	case FormatJSON:
		s = "json"
	case FormatMsgpack:
		s = "msgpack"
	case FormatCBOR:
		s = "cbor"
	case FormatProto:
		s = "protobuf"
	default:
		s = "custom"
	}
	if a := f.Compression(); a != None {
		s = a.String() + "+" + s
	}
	return s
}
