// Package sector tracks per-sector write/reclaim accounting in RAM,
// generalizing the teacher's segmentmanager (one active file, rotate on
// overflow) to many sectors tracked simultaneously, each independently
// allocatable and independently garbage-collectible.
package sector

import "errors"

var (
	// ErrExhausted means no sector (of those eligible) has enough free
	// space for the requested allocation.
	ErrExhausted = errors.New("sector: no sector has enough free space")
	// ErrNothingToReclaim means every eligible sector has zero
	// reclaimable bytes — garbage collection would accomplish nothing.
	ErrNothingToReclaim = errors.New("sector: no sector has reclaimable bytes")
	// ErrOverflow means an accounting update would violate the
	// bytes_reclaimable <= bytes_written invariant.
	ErrOverflow = errors.New("sector: reclaim accounting overflow")
)

// Descriptor is the in-RAM state spec.md §3 assigns to each sector.
type Descriptor struct {
	BytesWritten     uint32
	BytesReclaimable uint32
}

// Table owns exactly sectorCount descriptors, one per sector of a
// partition.
type Table struct {
	sectorSize uint32
	descs      []Descriptor
}

// NewTable builds a table for a partition of sectorCount sectors of
// sectorSize bytes, all initially fully erased and empty.
func NewTable(sectorCount int, sectorSize uint32) *Table {
	return &Table{
		sectorSize: sectorSize,
		descs:      make([]Descriptor, sectorCount),
	}
}

func (t *Table) SectorCount() int { return len(t.descs) }

func (t *Table) Descriptor(sector int) Descriptor { return t.descs[sector] }

// Free reports the writable byte count remaining in a sector.
func (t *Table) Free(sector int) uint32 {
	return t.sectorSize - t.descs[sector].BytesWritten
}

// Allocate finds an eligible (not in exclude) sector with at least size
// free bytes, preferring the sector with the least sufficient free space
// (best-fit), ties broken by lowest index. Returns the sector index and
// the write address within that sector.
func (t *Table) Allocate(size uint32, exclude map[int]bool) (sector int, addr uint32, err error) {
	best := -1
	var bestFree uint32
	for i, d := range t.descs {
		if exclude != nil && exclude[i] {
			continue
		}
		free := t.sectorSize - d.BytesWritten
		if free < size {
			continue
		}
		if best == -1 || free < bestFree {
			best = i
			bestFree = free
		}
	}
	if best == -1 {
		return 0, 0, ErrExhausted
	}
	return best, t.descs[best].BytesWritten, nil
}

// MarkWritten advances a sector's write cursor by size bytes, which must
// already be alignment-rounded by the caller.
func (t *Table) MarkWritten(sector int, size uint32) error {
	d := &t.descs[sector]
	if d.BytesWritten+size > t.sectorSize {
		return ErrOverflow
	}
	d.BytesWritten += size
	return nil
}

// MarkReclaimable adds size bytes to a sector's reclaimable count; it must
// never exceed bytes_written.
func (t *Table) MarkReclaimable(sector int, size uint32) error {
	d := &t.descs[sector]
	if d.BytesReclaimable+size > d.BytesWritten {
		return ErrOverflow
	}
	d.BytesReclaimable += size
	return nil
}

// ChooseGCVictim picks the eligible sector maximizing bytes_reclaimable,
// ties broken by lowest index.
func (t *Table) ChooseGCVictim(exclude map[int]bool) (int, error) {
	best := -1
	var bestReclaim uint32
	for i, d := range t.descs {
		if exclude != nil && exclude[i] {
			continue
		}
		if d.BytesReclaimable == 0 {
			continue
		}
		if best == -1 || d.BytesReclaimable > bestReclaim {
			best = i
			bestReclaim = d.BytesReclaimable
		}
	}
	if best == -1 {
		return 0, ErrNothingToReclaim
	}
	return best, nil
}

// ResetSector clears a sector's accounting after it has been physically
// erased.
func (t *Table) ResetSector(sector int) {
	t.descs[sector] = Descriptor{}
}

// ResetAll clears every sector's accounting, used by Init before a rescan.
func (t *Table) ResetAll() {
	for i := range t.descs {
		t.descs[i] = Descriptor{}
	}
}

// SetWritten seeds a sector's write cursor directly — used by Init, which
// derives bytes_written from the physical scan rather than accreting it
// via MarkWritten calls.
func (t *Table) SetWritten(sector int, n uint32) {
	t.descs[sector].BytesWritten = n
}

// AddReclaimable is MarkReclaimable without the overflow check, used by
// Init while it is still discovering bytes_written for a sector it hasn't
// finished scanning yet.
func (t *Table) AddReclaimable(sector int, n uint32) {
	t.descs[sector].BytesReclaimable += n
}
