package codec

import "encoding/json"

// JSON serializes values with encoding/json.
//
// JSON is lossy for anything that is not plain data: unexported fields are dropped,
// and values held in interface-typed fields come back as map[string]any/float64.
// That is expected behaviour for this variant, not a bug.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
func (JSON[V]) Format() Format { return FormatJSON }
