// Package kvs is the public surface of the embedded key-value store:
// Init, Get, Put, Delete, iteration, Size, MaxSize, orchestrating the
// entry codec, the sector table and the key descriptor index, and running
// garbage collection under space pressure.
package kvs

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/dsoprea/go-logging"

	"github.com/Priyanshu23/flashkv/checksum"
	"github.com/Priyanshu23/flashkv/entry"
	"github.com/Priyanshu23/flashkv/flash"
	"github.com/Priyanshu23/flashkv/index"
	"github.com/Priyanshu23/flashkv/sector"
)

// DefaultMagic identifies this package's own entry dialect. Deployments
// that want to prevent cross-use of partitions should pick their own.
const DefaultMagic = 0x464C4B56 // "FLKV"

// DefaultMaxValueLength is used when Config.MaxValueLength is zero. It is
// deliberately well under the spec's own reference sector size (4096 bytes)
// rather than matching it: a worst-case entry (MaxKeyLength key plus
// MaxValueLength value) always carries header and alignment-padding
// overhead on top of the value itself, so a MaxValueLength equal to the
// sector size can never actually fit in that sector — New rejects any
// Config where that is true, for whatever sector size the caller's
// partition actually has. 128 leaves comfortable room down to sectors as
// small as a few hundred bytes; deployments with larger sectors that want
// larger values set MaxValueLength explicitly.
const DefaultMaxValueLength = 128

// Config parameterizes an Engine at construction time. MaxEntries fixes
// the size of the descriptor index; the encode, decode and key-lookup
// buffers are not preallocated and each operation allocates its own.
type Config struct {
	// MaxEntries bounds the key descriptor index (kMaxEntries).
	MaxEntries int
	// MaxValueLength bounds value_length (kMaxValueLength). Defaults to
	// DefaultMaxValueLength if zero.
	MaxValueLength uint16
	// Magic identifies this deployment's entry dialect. Defaults to
	// DefaultMagic if zero.
	Magic uint32
	// Checksum constructs a fresh Hasher per encode/decode. Defaults to
	// checksum.CRC32 if nil.
	Checksum checksum.Factory
}

func (c Config) withDefaults() Config {
	if c.MaxValueLength == 0 {
		c.MaxValueLength = DefaultMaxValueLength
	}
	if c.Magic == 0 {
		c.Magic = DefaultMagic
	}
	if c.Checksum == nil {
		c.Checksum = checksum.CRC32
	}
	return c
}

// Engine is the KVS instance. It owns the index array and the sector
// table; the flash Partition is injected, not owned.
type Engine struct {
	partition *flash.Partition
	table     *sector.Table
	idx       *index.Index
	cfg       Config

	txCounter uint32
	// epoch increments on every successful Put/Delete so in-flight
	// Iterate calls can detect "not restartable across intervening
	// writes" (spec.md §6).
	epoch uint64
}

// New constructs an Engine over partition. Callers must still call Init
// before using it, to reconstruct the index and sector table from
// whatever the partition already holds (or to establish an empty store on
// virgin flash).
func New(partition *flash.Partition, cfg Config) (*Engine, error) {
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("kvs: MaxEntries must be positive: %w", ErrInvalidArgument)
	}
	cfg = cfg.withDefaults()

	csSize := cfg.Checksum().Size()
	alignment := entry.EffectiveAlignment(partition.Alignment())
	worstCase := entry.Size(csSize, entry.MaxKeyLength, int(cfg.MaxValueLength), alignment)
	if worstCase > partition.SectorSize() {
		return nil, fmt.Errorf(
			"kvs: MaxValueLength %d leaves no room for a %d-byte key plus header/padding in a %d-byte sector (worst-case entry is %d bytes): %w",
			cfg.MaxValueLength, entry.MaxKeyLength, partition.SectorSize(), worstCase, ErrInvalidArgument)
	}

	e := &Engine{
		partition: partition,
		table:     sector.NewTable(int(partition.SectorCount()), partition.SectorSize()),
		idx:       index.New(cfg.MaxEntries),
		cfg:       cfg,
	}
	return e, nil
}

// Size reports the number of currently-valid keys.
func (e *Engine) Size() uint32 { return uint32(e.idx.Len()) }

// MaxSize reports the fixed descriptor capacity (kMaxEntries).
func (e *Engine) MaxSize() uint32 { return uint32(e.idx.Cap()) }

func hashKey(key []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return h.Sum32()
}

// translate maps a lower-layer sentinel to the public error taxonomy,
// wrapping with log.Wrap in the teacher-adjacent dsoprea/go-logging
// idiom so the original cause survives in the error chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, flash.ErrInvalidArgument):
		return errors.Join(ErrInvalidArgument, log.Wrap(err))
	case errors.Is(err, flash.ErrNotErased):
		return errors.Join(ErrUnknown, log.Wrap(err))
	case errors.Is(err, entry.ErrMagicMismatch), errors.Is(err, entry.ErrChecksumMismatch):
		return errors.Join(ErrDataLoss, log.Wrap(err))
	case errors.Is(err, entry.ErrMalformed):
		return errors.Join(ErrInvalidArgument, log.Wrap(err))
	case errors.Is(err, sector.ErrExhausted), errors.Is(err, sector.ErrNothingToReclaim):
		return errors.Join(ErrResourceExhausted, log.Wrap(err))
	case errors.Is(err, index.ErrFull):
		return errors.Join(ErrResourceExhausted, log.Wrap(err))
	default:
		return errors.Join(ErrUnknown, log.Wrap(err))
	}
}

// recoverInternal converts a panic raised by an invariant check
// (log.PanicIf/log.Panicf, per SPEC_FULL.md §5) into ErrInternal at a
// public method boundary, instead of crashing the caller.
func recoverInternal(errp *error) {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			*errp = errors.Join(ErrInternal, err)
			return
		}
		*errp = ErrInternal
	}
}
