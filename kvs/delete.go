package kvs

import (
	"github.com/Priyanshu23/flashkv/entry"
	"github.com/Priyanshu23/flashkv/index"
)

// Delete removes key by writing a tombstone entry. Deleting an absent (or
// already-deleted) key fails ErrNotFound and does not touch flash
// (spec.md P4).
func (e *Engine) Delete(key []byte) (err error) {
	defer recoverInternal(&err)

	if len(key) < entry.MinKeyLength || len(key) > entry.MaxKeyLength {
		return ErrInvalidArgument
	}

	hash := hashKey(key)

	if !e.idx.MightContain(key) {
		return ErrNotFound
	}

	slot, found, ferr := e.findExisting(key, hash)
	if ferr != nil {
		return translate(ferr)
	}
	if !found {
		return ErrNotFound
	}
	if e.idx.Slot(slot).State == index.StateDeleted {
		return ErrNotFound
	}

	if e.txCounter == ^uint32(0) {
		return ErrInternal
	}
	txID := e.txCounter + 1

	prevAddr := e.idx.Slot(slot).Address

	addr, _, werr := e.write(key, nil, true, txID, prevAddr, true)
	if werr != nil {
		return translate(werr)
	}

	e.txCounter = txID
	e.idx.Set(slot, indexDescriptor(hash, txID, addr, true))
	e.epoch++

	return nil
}
