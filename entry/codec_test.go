package entry

import (
	"bytes"
	"testing"

	"github.com/Priyanshu23/flashkv/checksum"
)

const magic = 0x464C4B56

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		value   []byte
		deleted bool
	}{
		{"small", []byte("a"), []byte("b"), false},
		{"empty value", []byte("key"), []byte{}, false},
		{"max key", bytes.Repeat([]byte("k"), MaxKeyLength), []byte("v"), false},
		{"min key", []byte("k"), []byte("v"), false},
		{"tombstone", []byte("gone"), nil, true},
		{"binary value", []byte("bin"), []byte{0, 1, 2, 255}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := checksum.CRC32()
			buf, err := Encode(h, magic, 16, 7, tt.key, tt.value, tt.deleted)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			got, err := Decode(buf, checksum.CRC32(), magic)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			if !bytes.Equal(got.Key, tt.key) {
				t.Fatalf("key mismatch: got %q want %q", got.Key, tt.key)
			}
			if len(got.Value) != len(tt.value) || (len(tt.value) > 0 && !bytes.Equal(got.Value, tt.value)) {
				t.Fatalf("value mismatch: got %v want %v", got.Value, tt.value)
			}
			if got.Header.TransactionID != 7 {
				t.Fatalf("transaction id mismatch: got %d", got.Header.TransactionID)
			}
			if got.Deleted() != tt.deleted {
				t.Fatalf("deleted mismatch: got %v want %v", got.Deleted(), tt.deleted)
			}
			if len(buf)%16 != 0 {
				t.Fatalf("encoded entry not padded to a 16-byte unit: %d", len(buf))
			}
		})
	}
}

func TestEncodeRejectsKeyLength(t *testing.T) {
	h := checksum.CRC32()
	if _, err := Encode(h, magic, 16, 1, []byte{}, []byte("v"), false); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
	if _, err := Encode(h, magic, 16, 1, bytes.Repeat([]byte("k"), MaxKeyLength+1), []byte("v"), false); err == nil {
		t.Fatal("expected over-long key to be rejected")
	}
}

func TestEncodeRoundsPartitionAlignmentUpTo16(t *testing.T) {
	h := checksum.CRC32()
	buf, err := Encode(h, magic, 1, 1, []byte("k"), []byte("v"), false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buf)%16 != 0 {
		t.Fatalf("a 1-byte device alignment should still produce 16-byte-aligned entries: %d", len(buf))
	}
}

func TestDecodeDetectsMagicMismatch(t *testing.T) {
	h := checksum.CRC32()
	buf, err := Encode(h, magic, 16, 1, []byte("k"), []byte("v"), false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = Decode(buf, checksum.CRC32(), magic+1)
	if err != ErrMagicMismatch {
		t.Fatalf("got %v, want ErrMagicMismatch", err)
	}
}

func TestDecodeDetectsChecksumMismatch(t *testing.T) {
	h := checksum.CRC32()
	buf, err := Encode(h, magic, 16, 1, []byte("k"), []byte("v"), false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf[len(buf)-1] ^= 0xFF

	_, err = Decode(buf, checksum.CRC32(), magic)
	if err != ErrChecksumMismatch {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestIsErased(t *testing.T) {
	erased := bytes.Repeat([]byte{0xFF}, 32)
	if !IsErased(erased) {
		t.Fatal("expected all-0xFF buffer to report erased")
	}
	erased[10] = 0
	if IsErased(erased) {
		t.Fatal("expected a single non-0xFF byte to report not erased")
	}
}

func TestHeaderSizeGrowsWithChecksum(t *testing.T) {
	if HeaderSize(0) >= HeaderSize(4) {
		t.Fatal("header size should grow with checksum width")
	}
}
