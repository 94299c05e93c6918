package wire

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func mustDecode(t *testing.T, b []byte) (byte, []byte) {
	t.Helper()
	c, p, err := DecodeRecord(b)
	if err != nil {
		t.Fatalf("DecodeRecord error: %v", err)
	}
	return c, p
}

func TestRecordRTEmptyAndNonEmpty(t *testing.T) {
	cases := []struct {
		codec   byte
		payload []byte
	}{
		{1, nil},
		{2, []byte(`{"type":"string","value":"hello"}`)},
		{255, []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		enc := EncodeRecord(tc.codec, tc.payload)
		if !IsRecord(enc) {
			t.Fatalf("IsRecord(false) for fresh encoding")
		}
		c, p := mustDecode(t, enc)
		if c != tc.codec {
			t.Fatalf("codec mismatch: got %d want %d", c, tc.codec)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestRecordRejectsTrailingBytes(t *testing.T) {
	enc := EncodeRecord(1, []byte("x"))
	enc = append(enc, 0xDE, 0xAD) // add junk
	if _, _, err := DecodeRecord(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestRecordCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeRecord(1, []byte("abc"))

	// bad magic
	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, _, err := DecodeRecord(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}
	if IsRecord(badMagic) {
		t.Fatalf("IsRecord accepted bad magic")
	}

	// wrong version
	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, _, err := DecodeRecord(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	// length longer than payload
	badLen := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(badLen[6:10], 1<<31)
	if _, _, err := DecodeRecord(badLen); err == nil {
		t.Fatalf("expected error on oversize length")
	}

	// truncated
	for i := 0; i < len(enc); i++ {
		if _, _, err := DecodeRecord(enc[:i]); err == nil {
			t.Fatalf("expected error on truncation at %d", i)
		}
	}
}

func TestForeignValuesAreNotRecords(t *testing.T) {
	for _, s := range []string{"", "plain", `{"type":"string","value":"x"}`, strings.Repeat("P", 20)} {
		if IsRecord([]byte(s)) {
			t.Fatalf("IsRecord(%q) = true", s)
		}
		if _, _, err := DecodeRecord([]byte(s)); err != ErrCorrupt {
			t.Fatalf("DecodeRecord(%q) err = %v", s, err)
		}
	}
}

func TestDecodeReturnsView(t *testing.T) {
	enc := EncodeRecord(3, []byte("abc"))
	_, p := mustDecode(t, enc)
	if &p[0] != &enc[hdrLen] {
		t.Fatalf("payload must alias the input buffer")
	}
}
