package codec

import "fmt"

const maxRun = 255

// Compress run-length encodes b as (value, runLength) byte pairs. Runs longer
// than 255 are split. The encoded form is returned only when it is strictly
// smaller than b; otherwise b is returned unchanged with compressed=false.
func Compress(b []byte) (out []byte, compressed bool) {
	if len(b) == 0 {
		return b, false
	}
	enc := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		v := b[i]
		n := 1
		for i+n < len(b) && b[i+n] == v && n < maxRun {
			n++
		}
		enc = append(enc, v, byte(n))
		if len(enc) >= len(b) {
			return b, false // can no longer win
		}
		i += n
	}
	return enc, true
}

// Decompress reverses Compress. When compressed is false b is returned as is.
// originalSize must match the decoded length exactly and cannot exceed what
// len(b)/2 runs of at most 255 bytes can produce.
func Decompress(b []byte, originalSize int, compressed bool) ([]byte, error) {
	if !compressed {
		return b, nil
	}
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("codec: rle payload has odd length %d", len(b))
	}
	if originalSize < 0 {
		return nil, fmt.Errorf("codec: negative original size %d", originalSize)
	}
	if originalSize > (len(b)/2)*maxRun {
		return nil, fmt.Errorf("codec: original size %d exceeds rle capacity of %d pairs", originalSize, len(b)/2)
	}
	out := make([]byte, 0, originalSize)
	for i := 0; i < len(b); i += 2 {
		v, n := b[i], int(b[i+1])
		if n == 0 {
			return nil, fmt.Errorf("codec: zero run length at offset %d", i)
		}
		if len(out)+n > originalSize {
			return nil, fmt.Errorf("codec: rle payload exceeds original size %d", originalSize)
		}
		for j := 0; j < n; j++ {
			out = append(out, v)
		}
	}
	if len(out) != originalSize {
		return nil, fmt.Errorf("codec: rle decoded %d bytes, want %d", len(out), originalSize)
	}
	return out, nil
}
