package kvs

import (
	"github.com/dsoprea/go-logging"

	"github.com/Priyanshu23/flashkv/entry"
)

type scanWinner struct {
	desc   entry.Header
	key    []byte
	sector int
	addr   uint32
	size   uint32
}

// Init scans every sector of the partition from scratch, reconstructing
// the sector table and key descriptor index (spec.md §4.6). It may be
// called again at any time to force a rescan.
func (e *Engine) Init() (err error) {
	defer recoverInternal(&err)

	e.table.ResetAll()
	e.idx.Reset()

	latest := make(map[string]*scanWinner)
	var maxTxID uint32
	var anyEntry bool

	sectorSize := e.partition.SectorSize()
	hasher := e.cfg.Checksum()
	hdrSize := entry.HeaderSize(hasher.Size())
	alignment := e.partition.Alignment()

	for sec := 0; sec < e.table.SectorCount(); sec++ {
		sectorStart := e.partition.SectorStart(uint32(sec))
		var cursor uint32

		for cursor+uint32(hdrSize) <= sectorSize {
			addr := sectorStart + cursor

			window := make([]byte, hdrSize)
			if rerr := e.partition.Read(addr, window); rerr != nil {
				return translate(rerr)
			}

			if entry.IsErased(window) {
				break
			}

			h, herr := entry.DecodeHeader(window, hasher.Size(), e.cfg.Magic)
			if herr != nil {
				// Magic mismatch, or a malformed length field: neither is
				// free space, so step forward by one alignment unit and
				// retry (spec.md §4.6). Skipped bytes count as written, so
				// no later allocation lands on them.
				cursor += alignment
				e.table.SetWritten(sec, cursor)
				continue
			}

			entryAlignment := h.Alignment(alignment)
			total := entry.Size(hasher.Size(), int(h.KeyLength), int(h.ValueLength), entryAlignment)
			if cursor+total > sectorSize {
				cursor += alignment
				e.table.SetWritten(sec, cursor)
				continue
			}

			full := make([]byte, total)
			if rerr := e.partition.Read(addr, full); rerr != nil {
				return translate(rerr)
			}

			decoded, derr := entry.Decode(full, hasher, e.cfg.Magic)
			hasher.Reset()
			if derr != nil {
				cursor += alignment
				e.table.SetWritten(sec, cursor)
				continue
			}

			anyEntry = true
			if decoded.Header.TransactionID > maxTxID {
				maxTxID = decoded.Header.TransactionID
			}

			win := &scanWinner{
				desc:   decoded.Header,
				key:    decoded.Key,
				sector: sec,
				addr:   addr,
				size:   total,
			}
			e.resolveWinner(latest, win)

			cursor += total
			e.table.SetWritten(sec, cursor)
		}
	}

	for _, w := range latest {
		hash := hashKey(w.key)
		slot, aerr := e.idx.AllocSlot()
		if aerr != nil {
			log.PanicIf(aerr)
			return ErrInternal
		}
		e.idx.Set(slot, indexDescriptor(hash, w.desc.TransactionID, w.addr, w.desc.Deleted()))
		e.idx.AddToBucket(hash, slot)
		e.idx.Observe(w.key)
	}

	if anyEntry {
		e.txCounter = maxTxID
	} else {
		e.txCounter = 0
	}
	e.epoch++

	return nil
}

// resolveWinner applies spec.md §4.6/§4.5's "highest tx_id wins, ties
// broken by later scan position" rule, updating bytes_reclaimable for
// whichever sector loses.
func (e *Engine) resolveWinner(latest map[string]*scanWinner, candidate *scanWinner) {
	key := string(candidate.key)
	existing, ok := latest[key]
	if !ok {
		latest[key] = candidate
		return
	}

	if candidate.desc.TransactionID < existing.desc.TransactionID {
		e.table.AddReclaimable(candidate.sector, candidate.size)
		return
	}

	// Equal tx_id (crash mid-GC, spec.md §4.5) or strictly greater: the
	// later-encountered physical copy wins, since scanning proceeds in
	// increasing address order.
	e.table.AddReclaimable(existing.sector, existing.size)
	latest[key] = candidate
}
