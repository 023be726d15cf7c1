// Package entry implements the on-flash entry format: a self-describing
// record of header + key + value + alignment padding, generalized from the
// teacher's wal.Log Encode/Decode (magic-less there, but the same
// checksum-covers-the-rest-of-the-record discipline).
package entry

import "errors"

const (
	// MinKeyLength and MaxKeyLength bound key_length.
	MinKeyLength = 1
	MaxKeyLength = 64

	// unitsMask isolates the 7-bit alignment unit count from the delete
	// flag carried in the high bit of alignment_units.
	unitsMask   = 0x7F
	deleteFlag  = 0x80
	maxUnits    = unitsMask
	unitScale   = 16
)

var (
	// ErrMagicMismatch means the bytes at a candidate address do not
	// identify an entry of this deployment's dialect.
	ErrMagicMismatch = errors.New("entry: magic mismatch")
	// ErrChecksumMismatch means the magic matched but the digest over the
	// remaining bytes did not.
	ErrChecksumMismatch = errors.New("entry: checksum mismatch")
	// ErrMalformed means a length field is out of its documented range.
	ErrMalformed = errors.New("entry: malformed header")
)

// Header is the fixed-order, little-endian prefix of every entry. Its
// on-flash width depends on the configured checksum's Size(): 4 (magic) +
// checksumSize + 1 (alignment_units) + 1 (key_length) + 2 (value_length) +
// 4 (transaction_id).
type Header struct {
	Magic          uint32
	AlignmentUnits uint8 // low 7 bits: unit count; high bit: delete flag
	KeyLength      uint8
	ValueLength    uint16
	TransactionID  uint32
}

// HeaderSize returns the fixed header width for a given checksum digest
// width.
func HeaderSize(checksumSize int) int {
	return 4 + checksumSize + 1 + 1 + 2 + 4
}

// Deleted reports whether the header's delete flag is set.
func (h Header) Deleted() bool { return h.AlignmentUnits&deleteFlag != 0 }

// Units returns the raw alignment unit count (0..127).
func (h Header) Units() uint8 { return h.AlignmentUnits & unitsMask }

// Alignment returns the entry's actual alignment given the partition's
// floor alignment: (units+1)*16, clamped up to at least partitionAlignment.
func (h Header) Alignment(partitionAlignment uint32) uint32 {
	a := uint32(h.Units()+1) * unitScale
	if a < partitionAlignment {
		return partitionAlignment
	}
	return a
}

// encodeAlignmentUnits packs a unit count and the delete flag into the
// single alignment_units byte. alignment must already be a multiple of 16.
func encodeAlignmentUnits(alignment uint32, deleted bool) (uint8, error) {
	if alignment < unitScale || alignment%unitScale != 0 {
		return 0, ErrMalformed
	}
	units := alignment/unitScale - 1
	if units > maxUnits {
		return 0, ErrMalformed
	}
	b := uint8(units)
	if deleted {
		b |= deleteFlag
	}
	return b, nil
}
