package flash

// Fake is an in-memory Device, owning its own backing buffer. It exists
// solely for tests and for the demo in cmd/flashkv, never for production
// use — mirrored from the spec's own description of a reference test
// double, generalized from the teacher's file-backed segment managers to a
// byte-slice-backed one.
type Fake struct {
	buf        []byte
	sectorSize uint32
	alignment  uint32

	// shortWriteBudget, when >= 0, caps the number of bytes every Write call
	// actually commits before returning early without error — a crash
	// simulator for property P6 (interrupting a write at any byte must
	// still leave a recoverable state). A negative value disables it.
	shortWriteBudget int64
}

// NewFake builds an all-erased device of sectorCount sectors of sectorSize
// bytes each, with the given write alignment.
func NewFake(sectorCount, sectorSize, alignment uint32) *Fake {
	buf := make([]byte, uint64(sectorCount)*uint64(sectorSize))
	for i := range buf {
		buf[i] = 0xFF
	}
	return &Fake{
		buf:              buf,
		sectorSize:       sectorSize,
		alignment:        alignment,
		shortWriteBudget: -1,
	}
}

func (f *Fake) SectorSize() uint32  { return f.sectorSize }
func (f *Fake) SectorCount() uint32 { return uint32(len(f.buf)) / f.sectorSize }
func (f *Fake) Alignment() uint32   { return f.alignment }

// Read requires addr+len(out) <= len(buf). The spec's design notes call out
// that a prior fake's strict ">=" check (which forbids reading the final
// byte) was a bug; this Fake uses strict ">" instead.
func (f *Fake) Read(addr uint32, out []byte) error {
	if uint64(addr)+uint64(len(out)) > uint64(len(f.buf)) {
		return ErrInvalidArgument
	}
	copy(out, f.buf[addr:uint64(addr)+uint64(len(out))])
	return nil
}

func (f *Fake) Write(addr uint32, data []byte) error {
	if f.alignment != 0 {
		if addr%f.alignment != 0 || uint32(len(data))%f.alignment != 0 {
			return ErrInvalidArgument
		}
	}
	if uint64(addr)+uint64(len(data)) > uint64(len(f.buf)) {
		return ErrInvalidArgument
	}

	for i := range data {
		if f.buf[uint64(addr)+uint64(i)] != 0xFF {
			return ErrNotErased
		}
	}

	n := len(data)
	if f.shortWriteBudget >= 0 && int64(n) > f.shortWriteBudget {
		n = int(f.shortWriteBudget)
	}

	copy(f.buf[addr:uint64(addr)+uint64(n)], data[:n])
	return nil
}

func (f *Fake) Erase(addr uint32, sectors uint32) error {
	if addr%f.sectorSize != 0 {
		return ErrInvalidArgument
	}
	start := uint64(addr)
	end := start + uint64(sectors)*uint64(f.sectorSize)
	if end > uint64(len(f.buf)) {
		return ErrInvalidArgument
	}
	for i := start; i < end; i++ {
		f.buf[i] = 0xFF
	}
	return nil
}

// SimulateTornWrite caps every subsequent Write call at maxBytes committed
// bytes, modeling a power loss mid-program. Pass -1 to disable.
func (f *Fake) SimulateTornWrite(maxBytes int64) {
	f.shortWriteBudget = maxBytes
}

// Size returns the total addressable byte range.
func (f *Fake) Size() uint32 { return uint32(len(f.buf)) }
