package codec

import "encoding/json"

// JSON is the default record codec. Records look like the original
// {"type":...,"value":...} envelope and stay readable with any JSON tool.
type JSON[V any] struct{}

var _ Codec[Item] = JSON[Item]{}

func (JSON[V]) ID() byte { return IDJSON }

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
