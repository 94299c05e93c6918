// Package codec converts application values to type-tagged Items and back,
// and provides the record codecs that turn an Item into backend bytes.
//
// Value side:
//
//	it, err := codec.Encode([]float32{1, 2, 3}, codec.WithCompression())
//	v := codec.Decode(it) // []float32{1, 2, 3}
//
// Record side: Codec[Item] implementations (JSON, CBOR, Msgpack, Protobuf)
// serialize the whole Item for storage. Each reports an ID that is written into
// the wire frame so a record is never decoded with the wrong codec.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Record codec identifiers carried in the wire frame.
const (
	IDUnknown  byte = 0
	IDJSON     byte = 1
	IDCBOR     byte = 2
	IDMsgpack  byte = 3
	IDProtobuf byte = 4
)

// Identifier is implemented by codecs that have a stable wire ID.
type Identifier interface {
	ID() byte
}

// IDOf returns c's wire ID, or IDUnknown when c does not report one.
func IDOf[V any](c Codec[V]) byte {
	if id, ok := c.(Identifier); ok {
		return id.ID()
	}
	return IDUnknown
}
