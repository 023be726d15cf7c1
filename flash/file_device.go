package flash

import (
	"fmt"
	"os"
	"sync"
)

// FileDevice is a Device backed by a single flat OS file standing in for a
// real NOR chip's byte range, persisting across process restarts the way
// Fake cannot. It generalizes the teacher's segmentmanager.diskSegmentManager
// — create-if-absent, stat-and-size-check before mutating, mutex-guarded
// access, fsync after every durable write — from many rotating append-only
// log files to one fixed-size random-access image file.
type FileDevice struct {
	mu sync.Mutex
	f  *os.File

	sectorSize  uint32
	sectorCount uint32
	alignment   uint32
}

// OpenFileDevice opens path as a flash image of sectorCount sectors of
// sectorSize bytes. A file that does not yet exist is created and filled
// with 0xFF (erased); an existing file must already be exactly that size.
func OpenFileDevice(path string, sectorCount, sectorSize, alignment uint32) (*FileDevice, error) {
	wantSize := int64(sectorCount) * int64(sectorSize)

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.Size() != wantSize {
			return nil, fmt.Errorf("flash: %s is %d bytes, want %d for %d sectors of %d bytes: %w",
				path, info.Size(), wantSize, sectorCount, sectorSize, ErrInvalidArgument)
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return nil, err
		}
		return &FileDevice{f: f, sectorSize: sectorSize, sectorCount: sectorCount, alignment: alignment}, nil

	case os.IsNotExist(err):
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		erased := make([]byte, sectorSize)
		for i := range erased {
			erased[i] = 0xFF
		}
		for s := uint32(0); s < sectorCount; s++ {
			if _, err := f.WriteAt(erased, int64(s)*int64(sectorSize)); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return nil, err
		}
		return &FileDevice{f: f, sectorSize: sectorSize, sectorCount: sectorCount, alignment: alignment}, nil

	default:
		return nil, err
	}
}

func (d *FileDevice) SectorSize() uint32  { return d.sectorSize }
func (d *FileDevice) SectorCount() uint32 { return d.sectorCount }
func (d *FileDevice) Alignment() uint32   { return d.alignment }

func (d *FileDevice) Read(addr uint32, out []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if uint64(addr)+uint64(len(out)) > uint64(d.sectorCount)*uint64(d.sectorSize) {
		return ErrInvalidArgument
	}
	_, err := d.f.ReadAt(out, int64(addr))
	return err
}

func (d *FileDevice) Write(addr uint32, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.alignment != 0 && (addr%d.alignment != 0 || uint32(len(data))%d.alignment != 0) {
		return ErrInvalidArgument
	}
	if uint64(addr)+uint64(len(data)) > uint64(d.sectorCount)*uint64(d.sectorSize) {
		return ErrInvalidArgument
	}

	current := make([]byte, len(data))
	if _, err := d.f.ReadAt(current, int64(addr)); err != nil {
		return err
	}
	for _, b := range current {
		if b != 0xFF {
			return ErrNotErased
		}
	}

	if _, err := d.f.WriteAt(data, int64(addr)); err != nil {
		return err
	}
	return d.f.Sync()
}

func (d *FileDevice) Erase(addr uint32, sectors uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if addr%d.sectorSize != 0 {
		return ErrInvalidArgument
	}
	end := uint64(addr) + uint64(sectors)*uint64(d.sectorSize)
	if end > uint64(d.sectorCount)*uint64(d.sectorSize) {
		return ErrInvalidArgument
	}

	blank := make([]byte, d.sectorSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	for s := uint32(0); s < sectors; s++ {
		if _, err := d.f.WriteAt(blank, int64(addr)+int64(s)*int64(d.sectorSize)); err != nil {
			return err
		}
	}
	return d.f.Sync()
}

// Close releases the underlying file handle.
func (d *FileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
