// Package flash models the raw NOR-style device the key-value store is
// written against: a fixed array of equal-size sectors with erase-before-
// write semantics. Fake is an in-memory Device for tests; FileDevice is an
// OS-file-backed Device for anything that needs the image to outlive a
// process.
package flash

import "errors"

// ErrInvalidArgument is returned when a caller violates a documented
// precondition: a misaligned address, an out-of-range region, or an erase
// request that does not land on sector boundaries.
var ErrInvalidArgument = errors.New("flash: invalid argument")

// ErrNotErased is returned by Write when the target region is not all-ones,
// i.e. a write would occur over bits that are not erased. This is an
// integrity violation, not a documented precondition failure.
var ErrNotErased = errors.New("flash: target region not erased")

// Device is the contract a physical flash driver (or a fake) implements.
// Addresses are byte offsets from the start of the device.
type Device interface {
	// Read copies len(out) bytes starting at addr into out. Fails
	// ErrInvalidArgument if addr+len(out) exceeds the device size.
	Read(addr uint32, out []byte) error

	// Write programs data at addr. Fails ErrInvalidArgument if addr or
	// len(data) is not a multiple of Alignment(), or the region lies
	// outside the device. Fails ErrNotErased if any target byte is not
	// 0xFF before the write.
	Write(addr uint32, data []byte) error

	// Erase resets n whole sectors starting at addr to 0xFF. Fails
	// ErrInvalidArgument if addr is not sector-aligned or the range
	// exceeds the device.
	Erase(addr uint32, sectors uint32) error

	SectorSize() uint32
	SectorCount() uint32
	Alignment() uint32
}
