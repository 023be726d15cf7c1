package flash

import "fmt"

// Partition is a contiguous sector range of a Device reserved for one KVS
// instance. All KVS I/O goes through a Partition, never the raw Device —
// the same "callers never touch the underlying resource directly"
// discipline the teacher's segment managers apply to their log files.
type Partition struct {
	dev          Device
	startSector  uint32
	sectorCount  uint32
	alignment    uint32
	sectorSize   uint32
}

// NewPartition carves out [startSector, startSector+sectorCount) of dev.
// alignment must be >= dev.Alignment(); it is the alignment the KVS will
// use for entries, which may be coarser than the device minimum.
func NewPartition(dev Device, startSector, sectorCount, alignment uint32) (*Partition, error) {
	if alignment < dev.Alignment() {
		return nil, fmt.Errorf("flash: partition alignment %d below device alignment %d: %w", alignment, dev.Alignment(), ErrInvalidArgument)
	}
	if startSector+sectorCount > dev.SectorCount() {
		return nil, fmt.Errorf("flash: partition [%d,%d) exceeds device of %d sectors: %w", startSector, startSector+sectorCount, dev.SectorCount(), ErrInvalidArgument)
	}
	return &Partition{
		dev:         dev,
		startSector: startSector,
		sectorCount: sectorCount,
		alignment:   alignment,
		sectorSize:  dev.SectorSize(),
	}, nil
}

func (p *Partition) base() uint64 { return uint64(p.startSector) * uint64(p.sectorSize) }

func (p *Partition) Size() uint32 { return p.sectorCount * p.sectorSize }

func (p *Partition) SectorSize() uint32  { return p.sectorSize }
func (p *Partition) SectorCount() uint32 { return p.sectorCount }
func (p *Partition) Alignment() uint32   { return p.alignment }

func (p *Partition) Read(addr uint32, out []byte) error {
	if uint64(addr)+uint64(len(out)) > uint64(p.Size()) {
		return ErrInvalidArgument
	}
	return p.dev.Read(uint32(p.base())+addr, out)
}

func (p *Partition) Write(addr uint32, data []byte) error {
	if p.alignment != 0 && (addr%p.alignment != 0 || uint32(len(data))%p.alignment != 0) {
		return ErrInvalidArgument
	}
	if uint64(addr)+uint64(len(data)) > uint64(p.Size()) {
		return ErrInvalidArgument
	}
	return p.dev.Write(uint32(p.base())+addr, data)
}

// Erase resets sectors [sector, sector+n) of this partition, addressed
// relative to the partition's own start sector.
func (p *Partition) Erase(sector uint32, n uint32) error {
	if sector+n > p.sectorCount {
		return ErrInvalidArgument
	}
	return p.dev.Erase(uint32(p.base())+sector*p.sectorSize, n)
}

// SectorStart returns the partition-relative byte offset of a sector.
func (p *Partition) SectorStart(sector uint32) uint32 { return sector * p.sectorSize }

// SectorOf returns which sector a partition-relative address falls in.
func (p *Partition) SectorOf(addr uint32) uint32 { return addr / p.sectorSize }
