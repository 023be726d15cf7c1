package kvs

import "errors"

// Error taxonomy (spec.md §7). Lower-level packages define their own
// narrower sentinels; the engine maps them to these at the package
// boundary, the same layering the teacher uses between wal.ErrCorruptWAL
// and WALWriter.ErrWALClosed.
var (
	// ErrInvalidArgument: caller violated a documented precondition.
	ErrInvalidArgument = errors.New("kvs: invalid argument")
	// ErrNotFound: key not present, or present only as a tombstone.
	ErrNotFound = errors.New("kvs: not found")
	// ErrResourceExhausted: no sector allocatable even after GC, the
	// index is full, or a Get output buffer was too small (truncated).
	ErrResourceExhausted = errors.New("kvs: resource exhausted")
	// ErrDataLoss: checksum or magic mismatch where integrity was
	// required.
	ErrDataLoss = errors.New("kvs: data loss")
	// ErrUnknown: the flash driver reported a hardware-level failure;
	// the current operation was aborted without mutating RAM state.
	ErrUnknown = errors.New("kvs: unknown flash failure")
	// ErrInternal: an invariant was violated. Never expected under any
	// input; indicates a bug.
	ErrInternal = errors.New("kvs: internal invariant violation")
)
