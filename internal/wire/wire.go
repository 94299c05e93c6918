package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("purestore: corrupt record")
	magic4     = [...]byte{'P', 'S', 'T', 'R'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Record: magic(4) | ver(1) | codec(1) | vlen(u32 be) | payload(vlen)
//
// codec is the record codec ID the payload was written with, so a reader can
// pick the matching decoder even after the store's default codec changed.
func EncodeRecord(codec byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(codec)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeRecord validates the frame and returns a view into b. Trailing bytes
// are rejected.
func DecodeRecord(b []byte) (codec byte, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	codec = b[5]
	off := 6

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // overflow-safe, exact length
		return 0, nil, ErrCorrupt
	}

	return codec, b[off : off+vlen], nil
}

// IsRecord reports whether b starts with a record header of this version.
func IsRecord(b []byte) bool {
	return len(b) >= hdrLen && hasMagic(b) && b[4] == version
}
