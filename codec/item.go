package codec

// Type tags an encoded Item.
type Type string

const (
	TypeNull    Type = "null"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeBinary  Type = "binary"
)

// Item is the backend-storable form of a value.
//
// Value is nil only for TypeNull. Binary items carry base64 text in Value and
// the element kind in BinaryType; OriginalSize is set when IsCompressed.
// Encrypted is owned by the store layer: when true, Value holds base64
// ciphertext of the plaintext Value and must be decrypted before Decode.
type Item struct {
	Type         Type    `json:"type" cbor:"type" msgpack:"type"`
	Value        *string `json:"value" cbor:"value" msgpack:"value"`
	BinaryType   string  `json:"binaryType,omitempty" cbor:"binaryType,omitempty" msgpack:"binaryType,omitempty"`
	IsCompressed bool    `json:"isCompressed,omitempty" cbor:"isCompressed,omitempty" msgpack:"isCompressed,omitempty"`
	OriginalSize int     `json:"originalSize,omitempty" cbor:"originalSize,omitempty" msgpack:"originalSize,omitempty"`
	Encrypted    bool    `json:"encrypted,omitempty" cbor:"encrypted,omitempty" msgpack:"encrypted,omitempty"`
}

// Text returns the payload or "" for null items.
func (it Item) Text() string {
	if it.Value == nil {
		return ""
	}
	return *it.Value
}

// WithText returns a copy of it carrying s as payload.
func (it Item) WithText(s string) Item {
	it.Value = &s
	return it
}

func strPtr(s string) *string { return &s }
