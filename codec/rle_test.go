package codec

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestCompressScenario(t *testing.T) {
	in := []byte{1, 1, 1, 1, 2, 2, 3}
	out, ok := Compress(in)
	if !ok {
		t.Fatalf("expected compression")
	}
	want := []byte{1, 4, 2, 2, 3, 1}
	if !bytes.Equal(out, want) {
		t.Fatalf("Compress = %v want %v", out, want)
	}
}

func TestCompressDistinctBytesReturnsOriginal(t *testing.T) {
	in := make([]byte, 256)
	for i := range in {
		in[i] = byte(i)
	}
	out, ok := Compress(in)
	if ok {
		t.Fatalf("all-distinct input must not be compressed")
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("uncompressed output must equal input")
	}
}

func TestCompressSplitsLongRuns(t *testing.T) {
	in := bytes.Repeat([]byte{9}, 600)
	out, ok := Compress(in)
	if !ok {
		t.Fatalf("expected compression")
	}
	want := []byte{9, 255, 9, 255, 9, 90}
	if !bytes.Equal(out, want) {
		t.Fatalf("Compress = %v want %v", out, want)
	}
}

func TestCompressEqualSizeNotKept(t *testing.T) {
	// two runs of two -> 4 bytes out, 4 bytes in: not strictly smaller
	in := []byte{1, 1, 2, 2}
	out, ok := Compress(in)
	if ok || !bytes.Equal(out, in) {
		t.Fatalf("equal-size output must be discarded, got %v ok=%v", out, ok)
	}
}

func TestCompressDecompressProperty(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	inputs := [][]byte{nil, {}, {0}, {5, 5}, bytes.Repeat([]byte{0}, 255), bytes.Repeat([]byte{0}, 256)}
	for i := 0; i < 200; i++ {
		n := r.Intn(2000)
		b := make([]byte, n)
		alphabet := 1 + r.Intn(4) // small alphabets give long runs
		for j := range b {
			if j > 0 && r.Intn(10) < 8 {
				b[j] = b[j-1]
				continue
			}
			b[j] = byte(r.Intn(alphabet) * 60)
		}
		inputs = append(inputs, b)
	}
	for i, in := range inputs {
		out, ok := Compress(in)
		if ok && len(out) >= len(in) {
			t.Fatalf("case %d: compressed output not smaller", i)
		}
		got, err := Decompress(out, len(in), ok)
		if err != nil {
			t.Fatalf("case %d: Decompress: %v", i, err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("case %d: round trip mismatch", i)
		}
	}
}
