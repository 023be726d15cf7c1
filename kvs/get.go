package kvs

import (
	"github.com/Priyanshu23/flashkv/entry"
	"github.com/Priyanshu23/flashkv/index"
)

// Get copies key's value into out, returning the actual value size. If
// out is shorter than the value, the prefix that fits is still copied and
// ErrResourceExhausted is returned alongside the true size (spec.md §6).
func (e *Engine) Get(key []byte, out []byte) (n int, err error) {
	defer recoverInternal(&err)

	if len(key) < entry.MinKeyLength || len(key) > entry.MaxKeyLength {
		return 0, ErrInvalidArgument
	}

	if !e.idx.MightContain(key) {
		return 0, ErrNotFound
	}

	hash := hashKey(key)
	slot, found, ferr := e.findExisting(key, hash)
	if ferr != nil {
		return 0, translate(ferr)
	}
	if !found {
		return 0, ErrNotFound
	}
	d := e.idx.Slot(slot)
	if d.State == index.StateDeleted {
		return 0, ErrNotFound
	}

	hasher := e.cfg.Checksum()
	full, _, rerr := entry.ReadFull(e.partition, d.Address, hasher, e.cfg.Magic, e.partition.Alignment())
	if rerr != nil {
		return 0, translate(rerr)
	}

	valueLen := len(full.Value)
	copied := copy(out, full.Value)

	if copied < valueLen {
		return valueLen, ErrResourceExhausted
	}
	return valueLen, nil
}
