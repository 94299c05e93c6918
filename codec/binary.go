package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// Binary element kinds recorded in Item.BinaryType. Multi-byte elements are
// laid out little-endian.
const (
	BinaryBytes   = "bytes"
	BinaryInt8    = "int8"
	BinaryInt16   = "int16"
	BinaryUint16  = "uint16"
	BinaryInt32   = "int32"
	BinaryUint32  = "uint32"
	BinaryInt64   = "int64"
	BinaryUint64  = "uint64"
	BinaryFloat32 = "float32"
	BinaryFloat64 = "float64"
)

var le = binary.LittleEndian

// binarySliceTypes are the unnamed slice types binaryBytes handles. Named
// slice types with the same element type are encoded as that type unless they
// implement json.Marshaler.
var binarySliceTypes = []reflect.Type{
	reflect.TypeFor[[]byte](),
	reflect.TypeFor[[]int8](),
	reflect.TypeFor[[]int16](),
	reflect.TypeFor[[]uint16](),
	reflect.TypeFor[[]int32](),
	reflect.TypeFor[[]uint32](),
	reflect.TypeFor[[]int64](),
	reflect.TypeFor[[]uint64](),
	reflect.TypeFor[[]float32](),
	reflect.TypeFor[[]float64](),
}

// binaryBytes flattens a supported typed slice into its raw bytes. ok=false
// means v is not a binary value.
func binaryBytes(v any) (kind string, raw []byte, ok bool) {
	switch s := v.(type) {
	case []byte:
		return BinaryBytes, s, true
	case []int8:
		out := make([]byte, len(s))
		for i, x := range s {
			out[i] = byte(x)
		}
		return BinaryInt8, out, true
	case []int16:
		out := make([]byte, 2*len(s))
		for i, x := range s {
			le.PutUint16(out[2*i:], uint16(x))
		}
		return BinaryInt16, out, true
	case []uint16:
		out := make([]byte, 2*len(s))
		for i, x := range s {
			le.PutUint16(out[2*i:], x)
		}
		return BinaryUint16, out, true
	case []int32:
		out := make([]byte, 4*len(s))
		for i, x := range s {
			le.PutUint32(out[4*i:], uint32(x))
		}
		return BinaryInt32, out, true
	case []uint32:
		out := make([]byte, 4*len(s))
		for i, x := range s {
			le.PutUint32(out[4*i:], x)
		}
		return BinaryUint32, out, true
	case []int64:
		out := make([]byte, 8*len(s))
		for i, x := range s {
			le.PutUint64(out[8*i:], uint64(x))
		}
		return BinaryInt64, out, true
	case []uint64:
		out := make([]byte, 8*len(s))
		for i, x := range s {
			le.PutUint64(out[8*i:], x)
		}
		return BinaryUint64, out, true
	case []float32:
		out := make([]byte, 4*len(s))
		for i, x := range s {
			le.PutUint32(out[4*i:], math.Float32bits(x))
		}
		return BinaryFloat32, out, true
	case []float64:
		out := make([]byte, 8*len(s))
		for i, x := range s {
			le.PutUint64(out[8*i:], math.Float64bits(x))
		}
		return BinaryFloat64, out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Name() == "" {
		return "", nil, false
	}
	if _, ok := v.(json.Marshaler); ok {
		return "", nil, false
	}
	for _, t := range binarySliceTypes {
		if rv.Type().Elem() == t.Elem() {
			return binaryBytes(rv.Convert(t).Interface())
		}
	}
	return "", nil, false
}

func elemWidth(kind string) int {
	switch kind {
	case BinaryBytes, BinaryInt8:
		return 1
	case BinaryInt16, BinaryUint16:
		return 2
	case BinaryInt32, BinaryUint32, BinaryFloat32:
		return 4
	case BinaryInt64, BinaryUint64, BinaryFloat64:
		return 8
	}
	return 0
}

// typedView rebuilds a slice of the recorded kind over raw.
func typedView(kind string, raw []byte) (any, error) {
	w := elemWidth(kind)
	if w == 0 {
		return nil, fmt.Errorf("unknown binary type %q", kind)
	}
	if len(raw)%w != 0 {
		return nil, fmt.Errorf("%d bytes is not a multiple of %s width %d", len(raw), kind, w)
	}
	n := len(raw) / w
	switch kind {
	case BinaryBytes:
		return raw, nil
	case BinaryInt8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out, nil
	case BinaryInt16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(le.Uint16(raw[2*i:]))
		}
		return out, nil
	case BinaryUint16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = le.Uint16(raw[2*i:])
		}
		return out, nil
	case BinaryInt32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(le.Uint32(raw[4*i:]))
		}
		return out, nil
	case BinaryUint32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = le.Uint32(raw[4*i:])
		}
		return out, nil
	case BinaryInt64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case BinaryUint64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = le.Uint64(raw[8*i:])
		}
		return out, nil
	case BinaryFloat32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[4*i:]))
		}
		return out, nil
	default: // BinaryFloat64
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[8*i:]))
		}
		return out, nil
	}
}
