package entry

import (
	"bytes"
	"testing"

	"github.com/Priyanshu23/flashkv/checksum"
)

type memReader struct {
	buf []byte
}

func (m *memReader) Read(addr uint32, out []byte) error {
	if int(addr)+len(out) > len(m.buf) {
		return ErrMalformed
	}
	copy(out, m.buf[addr:])
	return nil
}

func newMemReader(size int) *memReader {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xFF
	}
	return &memReader{buf: buf}
}

func TestReadFullRoundTrip(t *testing.T) {
	r := newMemReader(256)
	h := checksum.CRC32()
	encoded, err := Encode(h, magic, 16, 3, []byte("greeting"), []byte("hello"), false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	copy(r.buf, encoded)

	got, total, err := ReadFull(r, 0, checksum.CRC32(), magic, 16)
	if err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if total != uint32(len(encoded)) {
		t.Fatalf("total = %d, want %d", total, len(encoded))
	}
	if !bytes.Equal(got.Value, []byte("hello")) {
		t.Fatalf("value mismatch: %q", got.Value)
	}
}

func TestPeekSizeMatchesReadFull(t *testing.T) {
	r := newMemReader(256)
	h := checksum.CRC32()
	encoded, err := Encode(h, magic, 16, 3, []byte("k"), []byte("a value"), false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	copy(r.buf, encoded)

	size, err := PeekSize(r, 0, h.Size(), 16, magic)
	if err != nil {
		t.Fatalf("PeekSize: %v", err)
	}
	if size != uint32(len(encoded)) {
		t.Fatalf("PeekSize = %d, want %d", size, len(encoded))
	}
}
