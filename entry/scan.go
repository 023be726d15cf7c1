package entry

import "github.com/Priyanshu23/flashkv/checksum"

// Reader is the minimal flash-reading capability the codec needs to peek
// at an already-written entry without the caller first deciding how many
// bytes to fetch. Satisfied by *flash.Partition.
type Reader interface {
	Read(addr uint32, out []byte) error
}

// PeekSize reads just the header at addr and reports the entry's total
// on-flash footprint (header+key+value+padding), without reading or
// verifying the key/value/checksum. Used by the engine to compute how many
// bytes an existing entry reclaims when it is superseded or deleted.
func PeekSize(r Reader, addr uint32, checksumSize int, partitionAlignment uint32, magic uint32) (uint32, error) {
	hdrSize := HeaderSize(checksumSize)
	buf := make([]byte, hdrSize)
	if err := r.Read(addr, buf); err != nil {
		return 0, err
	}
	h, err := DecodeHeader(buf, checksumSize, magic)
	if err != nil {
		return 0, err
	}
	alignment := h.Alignment(partitionAlignment)
	return Size(checksumSize, int(h.KeyLength), int(h.ValueLength), alignment), nil
}

// ReadFull reads and fully decodes the entry at addr, first peeking the
// header to learn its aligned size and then re-reading that many bytes —
// the two-phase "header window, then full decode" shape spec.md's scan
// algorithm describes.
func ReadFull(r Reader, addr uint32, hasher checksum.Hasher, magic uint32, partitionAlignment uint32) (Entry, uint32, error) {
	hdrSize := HeaderSize(hasher.Size())
	hdrBuf := make([]byte, hdrSize)
	if err := r.Read(addr, hdrBuf); err != nil {
		return Entry{}, 0, err
	}
	h, err := DecodeHeader(hdrBuf, hasher.Size(), magic)
	if err != nil {
		return Entry{}, 0, err
	}

	total := Size(hasher.Size(), int(h.KeyLength), int(h.ValueLength), h.Alignment(partitionAlignment))
	full := make([]byte, total)
	if err := r.Read(addr, full); err != nil {
		return Entry{}, 0, err
	}

	e, err := Decode(full, hasher, magic)
	if err != nil {
		return Entry{}, total, err
	}
	return e, total, nil
}
