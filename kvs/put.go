package kvs

import (
	"errors"

	"github.com/dsoprea/go-logging"

	"github.com/Priyanshu23/flashkv/entry"
	"github.com/Priyanshu23/flashkv/sector"
)

// findExisting returns the slot holding key's current descriptor, if any,
// disambiguating hash collisions by reading the candidate's on-flash key
// bytes (spec.md §3: "hash collisions are resolved by comparing on-flash
// key bytes at lookup time").
func (e *Engine) findExisting(key []byte, hash uint32) (slot int, found bool, err error) {
	for _, cand := range e.idx.CandidatesForHash(hash) {
		d := e.idx.Slot(cand)
		actual, rerr := e.readKeyAt(d.Address)
		if rerr != nil {
			// A candidate whose on-flash key can no longer be read
			// cleanly is an invariant violation: the index must always
			// point at something decodable.
			log.PanicIf(rerr)
			return 0, false, rerr
		}
		if string(actual) == string(key) {
			return cand, true, nil
		}
	}
	return 0, false, nil
}

// readKeyAt decodes just the header+key prefix of the entry at addr.
func (e *Engine) readKeyAt(addr uint32) ([]byte, error) {
	hasher := e.cfg.Checksum()
	hdrSize := entry.HeaderSize(hasher.Size())
	buf := make([]byte, hdrSize)
	if err := e.partition.Read(addr, buf); err != nil {
		return nil, err
	}
	h, err := entry.DecodeHeader(buf, hasher.Size(), e.cfg.Magic)
	if err != nil {
		return nil, err
	}
	key := make([]byte, h.KeyLength)
	if err := e.partition.Read(addr+uint32(hdrSize), key); err != nil {
		return nil, err
	}
	return key, nil
}

// allocate finds room for an entry of size bytes, running garbage
// collection and retrying exactly once on the first failure, per
// spec.md §4.4 step 5.
func (e *Engine) allocate(size uint32) (sec int, addr uint32, err error) {
	sec, addr, err = e.table.Allocate(size, nil)
	if err == nil {
		return sec, e.partition.SectorStart(uint32(sec)) + addr, nil
	}
	if !errors.Is(err, sector.ErrExhausted) {
		return 0, 0, err
	}

	if gcErr := e.gc(); gcErr != nil {
		return 0, 0, gcErr
	}

	sec, addr, err = e.table.Allocate(size, nil)
	if err != nil {
		return 0, 0, err
	}
	return sec, e.partition.SectorStart(uint32(sec)) + addr, nil
}

// write encodes and writes an entry, advances the destination sector's
// write cursor, and marks the superseded entry (if any) reclaimable in
// its own sector. It does not record the new entry in the index (garbage
// collection run by allocate may repoint other live descriptors); callers
// commit that only after this succeeds, so a failed write never leaves the
// index pointing somewhere inconsistent with flash.
func (e *Engine) write(key, value []byte, deleted bool, txID uint32, prevAddr uint32, hadPrev bool) (addr uint32, sec int, err error) {
	hasher := e.cfg.Checksum()
	alignment := e.partition.Alignment()

	buf, err := entry.Encode(hasher, e.cfg.Magic, alignment, txID, key, value, deleted)
	if err != nil {
		return 0, 0, err
	}

	sec, addr, err = e.allocate(uint32(len(buf)))
	if err != nil {
		return 0, 0, err
	}

	if err := e.partition.Write(addr, buf); err != nil {
		return 0, 0, err
	}

	if err := e.table.MarkWritten(sec, uint32(len(buf))); err != nil {
		log.PanicIf(err)
		return 0, 0, err
	}

	if hadPrev {
		// allocate may have run gc, which relocates live entries; look the
		// key up again so the superseded copy is found where it is now.
		slot, found, ferr := e.findExisting(key, hashKey(key))
		if ferr != nil {
			return 0, 0, ferr
		}
		if found {
			prevAddr = e.idx.Slot(slot).Address
		}
		prevSec := int(e.partition.SectorOf(prevAddr))
		prevSize, perr := entry.PeekSize(e.partition, prevAddr, hasher.Size(), alignment, e.cfg.Magic)
		if perr != nil {
			log.PanicIf(perr)
			return 0, 0, perr
		}
		if merr := e.table.MarkReclaimable(prevSec, prevSize); merr != nil {
			log.PanicIf(merr)
			return 0, 0, merr
		}
	}

	return addr, sec, nil
}

// Put writes value for key, superseding any prior value. See spec.md §4.4.
func (e *Engine) Put(key, value []byte) (err error) {
	defer recoverInternal(&err)

	if len(key) < entry.MinKeyLength || len(key) > entry.MaxKeyLength {
		return ErrInvalidArgument
	}
	if len(value) > int(e.cfg.MaxValueLength) {
		return ErrInvalidArgument
	}

	hash := hashKey(key)
	slot, found, ferr := e.findExisting(key, hash)
	if ferr != nil {
		return translate(ferr)
	}
	if !found && len(e.idx.UsedSlots()) >= e.idx.Cap() {
		return ErrResourceExhausted
	}

	if e.txCounter == ^uint32(0) {
		return ErrInternal
	}
	txID := e.txCounter + 1

	var prevAddr uint32
	var hadPrev bool
	if found {
		prevAddr = e.idx.Slot(slot).Address
		hadPrev = true
	}

	addr, _, werr := e.write(key, value, false, txID, prevAddr, hadPrev)
	if werr != nil {
		return translate(werr)
	}

	e.txCounter = txID

	if !found {
		newSlot, aerr := e.idx.AllocSlot()
		if aerr != nil {
			log.PanicIf(aerr)
			return ErrInternal
		}
		slot = newSlot
		e.idx.AddToBucket(hash, slot)
	}
	e.idx.Set(slot, indexDescriptor(hash, txID, addr, false))
	e.idx.Observe(key)
	e.epoch++

	return nil
}
