package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf stores Items as a google.protobuf.Struct, so records can be read
// by any protobuf runtime without generated code.
type Protobuf struct{}

var _ Codec[Item] = Protobuf{}

func (Protobuf) ID() byte { return IDProtobuf }

func (Protobuf) Encode(it Item) ([]byte, error) {
	fields := map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(it.Type)),
	}
	if it.Value != nil {
		fields["value"] = structpb.NewStringValue(*it.Value)
	} else {
		fields["value"] = structpb.NewNullValue()
	}
	if it.BinaryType != "" {
		fields["binaryType"] = structpb.NewStringValue(it.BinaryType)
	}
	if it.IsCompressed {
		fields["isCompressed"] = structpb.NewBoolValue(true)
		fields["originalSize"] = structpb.NewNumberValue(float64(it.OriginalSize))
	}
	if it.Encrypted {
		fields["encrypted"] = structpb.NewBoolValue(true)
	}
	return proto.Marshal(&structpb.Struct{Fields: fields})
}

func (Protobuf) Decode(b []byte) (Item, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return Item{}, err
	}
	f := s.GetFields()
	tv, ok := f["type"]
	if !ok {
		return Item{}, fmt.Errorf("protobuf record: missing type")
	}
	it := Item{Type: Type(tv.GetStringValue())}
	if v, ok := f["value"]; ok {
		if _, isStr := v.GetKind().(*structpb.Value_StringValue); isStr {
			it.Value = strPtr(v.GetStringValue())
		}
	}
	it.BinaryType = f["binaryType"].GetStringValue()
	it.IsCompressed = f["isCompressed"].GetBoolValue()
	size := f["originalSize"].GetNumberValue()
	if size < 0 || size > math.MaxInt32 || size != math.Trunc(size) {
		return Item{}, fmt.Errorf("protobuf record: invalid originalSize %v", size)
	}
	it.OriginalSize = int(size)
	it.Encrypted = f["encrypted"].GetBoolValue()
	return it, nil
}
