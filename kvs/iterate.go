package kvs

import (
	"iter"

	"github.com/Priyanshu23/flashkv/entry"
	"github.com/Priyanshu23/flashkv/index"
)

// Item is one element yielded by Iterate: a key plus a handle for reading
// its value on demand, so a full scan never has to hold every value in RAM
// at once (spec.md §6).
type Item struct {
	engine    *Engine
	key       []byte
	addr      uint32
	valueSize uint32
}

// Key returns the item's key. The slice is only valid for the lifetime of
// the enclosing Iterate call.
func (it Item) Key() []byte { return it.key }

// ValueSize reports the value's length without reading it.
func (it Item) ValueSize() uint32 { return it.valueSize }

// Value copies the item's value into out, the same truncate-and-report
// convention as Get.
func (it Item) Value(out []byte) (int, error) {
	hasher := it.engine.cfg.Checksum()
	full, _, err := entry.ReadFull(it.engine.partition, it.addr, hasher, it.engine.cfg.Magic, it.engine.partition.Alignment())
	if err != nil {
		return 0, translate(err)
	}
	valueLen := len(full.Value)
	copied := copy(out, full.Value)
	if copied < valueLen {
		return valueLen, ErrResourceExhausted
	}
	return valueLen, nil
}

// Iterate walks every currently-valid key in no particular order. The
// sequence is a snapshot of the index taken when Iterate is called: it is
// lazy (each item's key and header are read as the sequence reaches it,
// and its value only when the caller asks for it) but
// not restartable across an intervening Put or Delete, which it detects by
// comparing the engine's epoch and reports as ErrInternal (spec.md §6).
func (e *Engine) Iterate() iter.Seq2[Item, error] {
	startEpoch := e.epoch
	slots := e.idx.UsedSlots()

	return func(yield func(Item, error) bool) {
		for _, slot := range slots {
			if e.epoch != startEpoch {
				yield(Item{}, ErrInternal)
				return
			}

			d := e.idx.Slot(slot)
			if d.State != index.StateValid {
				continue
			}

			key, err := e.readKeyAt(d.Address)
			if err != nil {
				yield(Item{}, translate(err))
				return
			}
			hasher := e.cfg.Checksum()
			hdrSize := entry.HeaderSize(hasher.Size())
			hdrBuf := make([]byte, hdrSize)
			if err := e.partition.Read(d.Address, hdrBuf); err != nil {
				yield(Item{}, translate(err))
				return
			}
			hdr, err := entry.DecodeHeader(hdrBuf, hasher.Size(), e.cfg.Magic)
			if err != nil {
				yield(Item{}, translate(err))
				return
			}

			item := Item{
				engine:    e,
				key:       key,
				addr:      d.Address,
				valueSize: uint32(hdr.ValueLength),
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}
