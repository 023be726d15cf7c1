package entry

import (
	"encoding/binary"

	"github.com/Priyanshu23/flashkv/checksum"
)

// Entry is a fully decoded on-flash record.
type Entry struct {
	Header Header
	Key    []byte
	Value  []byte
}

// Deleted reports whether this entry is a tombstone.
func (e Entry) Deleted() bool { return e.Header.Deleted() }

func roundUp(n, to uint32) uint32 {
	if to == 0 {
		return n
	}
	rem := n % to
	if rem == 0 {
		return n
	}
	return n + (to - rem)
}

// Size computes the total on-flash footprint (header+key+value+padding) an
// entry with the given field widths would occupy, without building it.
func Size(checksumSize int, keyLen, valueLen int, alignment uint32) uint32 {
	raw := uint32(HeaderSize(checksumSize) + keyLen + valueLen)
	return roundUp(raw, alignment)
}

// EffectiveAlignment rounds a partition's raw device alignment up to the
// nearest 16-byte unit, the granularity the alignment_units field actually
// stores. Encode always writes at this alignment regardless of how fine
// the underlying device's own write granularity is; callers that need to
// predict an entry's on-flash footprint before encoding it (e.g. to bound
// MaxValueLength against a sector size) must use this, not the raw
// partition alignment, or they will undercount the real footprint.
func EffectiveAlignment(partitionAlignment uint32) uint32 {
	alignment := roundUp(partitionAlignment, unitScale)
	if alignment < unitScale {
		alignment = unitScale
	}
	return alignment
}

// Encode serializes key/value into a ready-to-write buffer. partitionAlignment
// is the underlying device's write granularity (spec.md's devices range from
// 1 to 64 bytes); the stored alignment_units field always rounds that up to
// the nearest 16-byte unit, since the unit field's 7 bits only express
// multiples of 16. The digest is computed over every byte after the
// checksum field (alignment_units through transaction_id, key, value and
// padding) and then patched into that field; the magic is not covered, as
// Decode checks it on its own. This follows the teacher's own "checksum the
// rest, patch it in" discipline in wal.Log.Encode — done here in one pass
// since the destination is an in-memory buffer rather than a seekable file.
func Encode(hasher checksum.Hasher, magic uint32, partitionAlignment uint32, txID uint32, key, value []byte, deleted bool) ([]byte, error) {
	if len(key) < MinKeyLength || len(key) > MaxKeyLength {
		return nil, ErrMalformed
	}
	if len(value) > 0xFFFF {
		return nil, ErrMalformed
	}

	alignment := EffectiveAlignment(partitionAlignment)

	csSize := hasher.Size()
	hdrSize := HeaderSize(csSize)
	total := Size(csSize, len(key), len(value), alignment)

	buf := make([]byte, total)
	for i := range buf {
		buf[i] = 0xFF
	}

	units, err := encodeAlignmentUnits(alignment, deleted)
	if err != nil {
		return nil, err
	}

	binary.LittleEndian.PutUint32(buf[0:4], magic)
	// checksum field lies outside the digest; it is filled in below
	off := 4 + csSize
	buf[off] = units
	buf[off+1] = byte(len(key))
	binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(len(value)))
	binary.LittleEndian.PutUint32(buf[off+4:off+8], txID)

	copy(buf[hdrSize:], key)
	copy(buf[hdrSize+len(key):], value)
	// buf[hdrSize+len(key)+len(value):] stays 0xFF padding.

	hasher.Reset()
	hasher.Update(buf[4+csSize:])
	digest := hasher.Finish()
	copy(buf[4:4+csSize], digest)

	return buf, nil
}

// DecodeHeader parses only the fixed-width header prefix of buf (which
// must be at least HeaderSize(checksumSize) bytes) and checks the magic
// number and length bounds, without verifying the checksum — the caller
// does not yet know the entry's total aligned size when this is called
// from a linear scan.
func DecodeHeader(buf []byte, checksumSize int, magic uint32) (Header, error) {
	hdrSize := HeaderSize(checksumSize)
	if len(buf) < hdrSize {
		return Header{}, ErrMalformed
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return Header{}, ErrMagicMismatch
	}
	off := 4 + checksumSize
	h := Header{
		Magic:          magic,
		AlignmentUnits: buf[off],
		KeyLength:      buf[off+1],
		ValueLength:    binary.LittleEndian.Uint16(buf[off+2 : off+4]),
		TransactionID:  binary.LittleEndian.Uint32(buf[off+4 : off+8]),
	}
	if h.KeyLength < MinKeyLength || h.KeyLength > MaxKeyLength {
		return Header{}, ErrMalformed
	}
	return h, nil
}

// Decode fully parses and verifies an entry from a buffer sized to exactly
// its aligned total (as returned by Header.Alignment + Size). Returns
// ErrChecksumMismatch if the digest does not match.
func Decode(buf []byte, hasher checksum.Hasher, magic uint32) (Entry, error) {
	csSize := hasher.Size()
	h, err := DecodeHeader(buf, csSize, magic)
	if err != nil {
		return Entry{}, err
	}

	hdrSize := HeaderSize(csSize)
	end := hdrSize + int(h.KeyLength) + int(h.ValueLength)
	if end > len(buf) {
		return Entry{}, ErrMalformed
	}

	if csSize > 0 {
		wantDigest := append([]byte(nil), buf[4:4+csSize]...)

		hasher.Reset()
		hasher.Update(buf[4+csSize:])
		got := hasher.Finish()

		if len(got) != len(wantDigest) {
			return Entry{}, ErrChecksumMismatch
		}
		for i := range got {
			if got[i] != wantDigest[i] {
				return Entry{}, ErrChecksumMismatch
			}
		}
	}

	key := append([]byte(nil), buf[hdrSize:hdrSize+int(h.KeyLength)]...)
	value := append([]byte(nil), buf[hdrSize+int(h.KeyLength):end]...)

	return Entry{Header: h, Key: key, Value: value}, nil
}

// IsErased reports whether buf is entirely 0xFF, the marker for untouched
// flash (spec invariant I4).
func IsErased(buf []byte) bool {
	for _, b := range buf {
		if b != 0xFF {
			return false
		}
	}
	return true
}
