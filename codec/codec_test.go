package codec

import (
	"reflect"
	"strings"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func sampleItems(t *testing.T) []Item {
	t.Helper()
	var out []Item
	for _, v := range []any{nil, "s", 12, 1.5, true, map[string]any{"a": 1}} {
		it, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode(%v): %v", v, err)
		}
		out = append(out, it)
	}
	bin, err := Encode([]byte{1, 1, 1, 1, 1, 1, 2}, WithCompression())
	if err != nil {
		t.Fatal(err)
	}
	enc := Item{Type: TypeString, Value: strPtr("Y2lwaGVy"), Encrypted: true}
	return append(out, bin, enc)
}

func TestRecordCodecsRoundTrip(t *testing.T) {
	codecs := map[string]Codec[Item]{
		"json":     JSON[Item]{},
		"cbor":     MustCBOR[Item](false),
		"cbor-det": MustCBOR[Item](true),
		"msgpack":  Msgpack[Item]{},
		"protobuf": Protobuf{},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			for _, it := range sampleItems(t) {
				b, err := c.Encode(it)
				if err != nil {
					t.Fatalf("Encode(%+v): %v", it, err)
				}
				got, err := c.Decode(b)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !reflect.DeepEqual(got, it) {
					t.Fatalf("round trip:\n got  %+v\n want %+v", got, it)
				}
			}
		})
	}
}

func TestJSONRecordShape(t *testing.T) {
	it, _ := Encode("v")
	b, err := JSON[Item]{}.Encode(it)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"type":"string","value":"v"}` {
		t.Fatalf("json record = %s", b)
	}
	null, _ := Encode(nil)
	b, _ = JSON[Item]{}.Encode(null)
	if string(b) != `{"type":"null","value":null}` {
		t.Fatalf("null record = %s", b)
	}
}

func TestCodecIDs(t *testing.T) {
	cases := []struct {
		c    Codec[Item]
		want byte
	}{
		{JSON[Item]{}, IDJSON},
		{MustCBOR[Item](false), IDCBOR},
		{Msgpack[Item]{}, IDMsgpack},
		{Protobuf{}, IDProtobuf},
		{LimitCodec[Item]{Inner: Msgpack[Item]{}}, IDMsgpack},
	}
	for _, tc := range cases {
		if got := IDOf(tc.c); got != tc.want {
			t.Fatalf("IDOf(%T) = %d want %d", tc.c, got, tc.want)
		}
	}
}

func TestLimitCodec(t *testing.T) {
	c := LimitCodec[Item]{Inner: JSON[Item]{}, MaxDecode: 40}
	it, _ := Encode(strings.Repeat("x", 100))
	b, err := c.Encode(it)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decode(b); err == nil {
		t.Fatalf("expected payload too large")
	}

	small, _ := Encode("x")
	b, _ = c.Encode(small)
	if got, err := c.Decode(b); err != nil || got.Text() != "x" {
		t.Fatalf("small decode: %+v %v", got, err)
	}
}

func TestProtobufDecodeRejectsBadOriginalSize(t *testing.T) {
	for _, size := range []float64{-1, 1.5, 1 << 62} {
		b, err := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
			"type":         structpb.NewStringValue(string(TypeBinary)),
			"value":        structpb.NewStringValue("AQE="),
			"isCompressed": structpb.NewBoolValue(true),
			"originalSize": structpb.NewNumberValue(size),
		}})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := (Protobuf{}).Decode(b); err == nil {
			t.Fatalf("originalSize %v accepted", size)
		}
	}
}

func TestProtobufDecodeMissingType(t *testing.T) {
	if _, err := (Protobuf{}).Decode(nil); err == nil {
		t.Fatalf("empty struct must be rejected")
	}
}
