package kvs

import (
	"github.com/Priyanshu23/flashkv/entry"
)

// gc reclaims space by relocating every entry in the sector with the most
// reclaimable bytes that the index still considers current, then erasing
// that sector (spec.md §4.5).
func (e *Engine) gc() error {
	victim, err := e.table.ChooseGCVictim(nil)
	if err != nil {
		return err
	}

	victimStart := e.partition.SectorStart(uint32(victim))
	sectorSize := e.partition.SectorSize()
	hdrSize := entry.HeaderSize(e.cfg.Checksum().Size())

	var cursor uint32
	for cursor+uint32(hdrSize) <= sectorSize {
		addr := victimStart + cursor

		hasher := e.cfg.Checksum()
		ent, total, derr := entry.ReadFull(e.partition, addr, hasher, e.cfg.Magic, e.partition.Alignment())
		if derr != nil {
			// Not a live, decodable entry at this offset: probe forward
			// by the minimum alignment step, same discipline as Init's
			// scan (spec.md §4.6).
			step := e.partition.Alignment()
			probe := make([]byte, sectorSize-cursor)
			if perr := e.partition.Read(victimStart+cursor, probe); perr == nil && entry.IsErased(probe) {
				break
			}
			cursor += step
			continue
		}

		if isCurrent(e, ent.Key, addr) {
			if _, _, werr := e.relocate(ent, victim); werr != nil {
				return werr
			}
		}

		cursor += total
	}

	if err := e.partition.Erase(uint32(victim), 1); err != nil {
		return err
	}
	e.table.ResetSector(victim)

	return nil
}

// isCurrent reports whether the entry for key physically at addr is still
// the one the index considers the live copy.
func isCurrent(e *Engine, key []byte, addr uint32) bool {
	hash := hashKey(key)
	for _, cand := range e.idx.CandidatesForHash(hash) {
		d := e.idx.Slot(cand)
		if d.Address != addr {
			continue
		}
		actual, err := e.readKeyAt(addr)
		if err != nil {
			return false
		}
		return string(actual) == string(key)
	}
	return false
}

// relocate copies an entry unchanged (same transaction id, per spec.md
// §4.5) into a destination sector other than victim, and repoints the
// index at the new address.
func (e *Engine) relocate(ent entry.Entry, victim int) (addr uint32, sec int, err error) {
	hasher := e.cfg.Checksum()
	alignment := e.partition.Alignment()

	buf, eerr := entry.Encode(hasher, e.cfg.Magic, alignment, ent.Header.TransactionID, ent.Key, ent.Value, ent.Deleted())
	if eerr != nil {
		return 0, 0, eerr
	}

	sec, addr, err = e.table.Allocate(uint32(len(buf)), map[int]bool{victim: true})
	if err != nil {
		return 0, 0, err
	}

	addr += e.partition.SectorStart(uint32(sec))
	if err := e.partition.Write(addr, buf); err != nil {
		return 0, 0, err
	}
	if err := e.table.MarkWritten(sec, uint32(len(buf))); err != nil {
		return 0, 0, err
	}

	hash := hashKey(ent.Key)
	for _, cand := range e.idx.CandidatesForHash(hash) {
		d := e.idx.Slot(cand)
		if d.TransactionID == ent.Header.TransactionID {
			d.Address = addr
			e.idx.Set(cand, d)
			break
		}
	}

	return addr, sec, nil
}
