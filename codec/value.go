package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// EncodeOption tunes Encode.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	compress bool
}

// WithCompression requests RLE compression of binary payloads. It is kept
// only when it makes the payload smaller.
func WithCompression() EncodeOption {
	return func(c *encodeConfig) { c.compress = true }
}

// Encode converts v into a type-tagged Item.
// Supported: nil, strings, bools, all integer and float kinds, the typed
// slices listed in binary.go, and anything encoding/json accepts (maps,
// slices, arrays, structs). Everything else fails with *SerializationError.
// Named slice types over those element types (type Blob []byte) are stored
// as binary and decode to the unnamed slice type.
func Encode(v any, opts ...EncodeOption) (Item, error) {
	var cfg encodeConfig
	for _, o := range opts {
		o(&cfg)
	}
	return encode(v, cfg)
}

func encode(v any, cfg encodeConfig) (Item, error) {
	switch x := v.(type) {
	case nil:
		return Item{Type: TypeNull}, nil
	case string:
		return Item{Type: TypeString, Value: strPtr(x)}, nil
	case bool:
		return Item{Type: TypeBoolean, Value: strPtr(strconv.FormatBool(x))}, nil
	case json.Number:
		return Item{Type: TypeNumber, Value: strPtr(x.String())}, nil
	}

	if kind, raw, ok := binaryBytes(v); ok {
		return encodeBinary(kind, raw, cfg.compress), nil
	}
	return encodeReflect(reflect.ValueOf(v), v, cfg)
}

func encodeReflect(rv reflect.Value, orig any, cfg encodeConfig) (Item, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Item{Type: TypeNull}, nil
		}
		if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
			return encodeObject(orig)
		}
		return encode(rv.Elem().Interface(), cfg)
	case reflect.String:
		return Item{Type: TypeString, Value: strPtr(rv.String())}, nil
	case reflect.Bool:
		return Item{Type: TypeBoolean, Value: strPtr(strconv.FormatBool(rv.Bool()))}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Item{Type: TypeNumber, Value: strPtr(strconv.FormatInt(rv.Int(), 10))}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Item{Type: TypeNumber, Value: strPtr(strconv.FormatUint(rv.Uint(), 10))}, nil
	case reflect.Float32:
		return Item{Type: TypeNumber, Value: strPtr(formatFloat(rv.Float(), 32))}, nil
	case reflect.Float64:
		return Item{Type: TypeNumber, Value: strPtr(formatFloat(rv.Float(), 64))}, nil
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return Item{Type: TypeNull}, nil
		}
		return encodeObject(orig)
	case reflect.Array, reflect.Struct:
		return encodeObject(orig)
	}
	return Item{}, &SerializationError{GoType: fmt.Sprintf("%T", orig), Err: ErrUnsupportedType}
}

func encodeObject(v any) (Item, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Item{}, &SerializationError{GoType: fmt.Sprintf("%T", v), Err: err}
	}
	return Item{Type: TypeObject, Value: strPtr(string(b))}, nil
}

func encodeBinary(kind string, raw []byte, compress bool) Item {
	it := Item{Type: TypeBinary, BinaryType: kind}
	payload := raw
	if compress {
		if enc, ok := Compress(raw); ok {
			payload = enc
			it.IsCompressed = true
			it.OriginalSize = len(raw)
		}
	}
	it.Value = strPtr(base64.StdEncoding.EncodeToString(payload))
	return it
}

// formatFloat keeps a '.' or exponent in finite output so that Decode can
// tell floats from integers.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Decode converts an Item back into a value. It never fails: malformed,
// partial or unknown items decode to nil. Use DecodeResult for the reason.
func Decode(it Item) any {
	v, _ := DecodeResult(it)
	return v
}

// DecodeResult is Decode with the failure kept.
//
// Numbers decode to int64 for integer literals (uint64 above MaxInt64) and
// float64 otherwise. Objects decode to the generic encoding/json shapes.
// Binary items decode to the typed slice named by BinaryType.
func DecodeResult(it Item) (any, error) {
	switch it.Type {
	case TypeNull:
		return nil, nil
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeBinary:
	default:
		return nil, &DecodeError{Type: it.Type, Reason: "unknown type"}
	}
	if it.Value == nil {
		return nil, &DecodeError{Type: it.Type, Reason: "missing value"}
	}
	s := *it.Value

	switch it.Type {
	case TypeString:
		return s, nil
	case TypeBoolean:
		return s == "true", nil
	case TypeNumber:
		return parseNumber(s)
	case TypeObject:
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, &DecodeError{Type: it.Type, Reason: "invalid json", Err: err}
		}
		return out, nil
	default: // TypeBinary
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, &DecodeError{Type: it.Type, Reason: "invalid base64", Err: err}
		}
		raw, err = Decompress(raw, it.OriginalSize, it.IsCompressed)
		if err != nil {
			return nil, &DecodeError{Type: it.Type, Reason: "decompress", Err: err}
		}
		kind := it.BinaryType
		if kind == "" {
			kind = BinaryBytes
		}
		v, err := typedView(kind, raw)
		if err != nil {
			return nil, &DecodeError{Type: it.Type, Reason: "typed view", Err: err}
		}
		return v, nil
	}
}

func parseNumber(s string) (any, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &DecodeError{Type: TypeNumber, Reason: "invalid number", Err: err}
	}
	return f, nil
}
