// Package index is the in-RAM key descriptor index: a bounded mapping from
// key hash to {key hash, transaction id, address, state}. Capacity is
// fixed at construction (no heap growth on the hot path), occupied slots
// are tracked with a bitset, and a bloom filter accelerates rejecting
// lookups for keys that were never written — the same fast-reject role
// the teacher's sst package gives a bloom filter over one SST file,
// generalized here to the whole store.
package index

import (
	"errors"

	"github.com/bits-and-blooms/bitset"
	"github.com/bits-and-blooms/bloom/v3"
)

// ErrFull means every slot in the bounded descriptor array is occupied.
var ErrFull = errors.New("index: full")

// State is a descriptor's lifecycle state.
type State int

const (
	StateValid State = iota
	StateDeleted
)

// Descriptor mirrors spec.md §3's key descriptor entity.
type Descriptor struct {
	KeyHash       uint32
	TransactionID uint32
	Address       uint32
	State         State
}

// Index owns an array of at most cap descriptors. Hash collisions are
// resolved by the caller: CandidatesForHash returns every slot whose
// descriptor has a matching hash, and the caller (which can read the
// on-flash key bytes) picks the one whose key actually matches.
type Index struct {
	cap     int
	slots   []Descriptor
	used    *bitset.BitSet
	buckets map[uint32][]int
	bloom   *bloom.BloomFilter
}

// New builds an index bounded to maxEntries descriptors.
func New(maxEntries int) *Index {
	return &Index{
		cap:     maxEntries,
		slots:   make([]Descriptor, maxEntries),
		used:    bitset.New(uint(maxEntries)),
		buckets: make(map[uint32][]int, maxEntries),
		bloom:   bloom.NewWithEstimates(uint(max(maxEntries, 1)), 0.01),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Cap returns the fixed descriptor capacity.
func (ix *Index) Cap() int { return ix.cap }

// Len returns the number of currently-valid keys (spec.md's size()).
func (ix *Index) Len() int {
	n := 0
	for i, ok := ix.used.NextSet(0); ok; i, ok = ix.used.NextSet(i + 1) {
		if ix.slots[i].State == StateValid {
			n++
		}
	}
	return n
}

// Reset empties the index, used before Init rescans flash from scratch.
func (ix *Index) Reset() {
	ix.slots = make([]Descriptor, ix.cap)
	ix.used = bitset.New(uint(ix.cap))
	ix.buckets = make(map[uint32][]int, ix.cap)
	ix.bloom = bloom.NewWithEstimates(uint(max(ix.cap, 1)), 0.01)
}

// MightContain is a fast, possibly-false-positive, never-false-negative
// check of whether key was ever Observe'd into the index.
func (ix *Index) MightContain(key []byte) bool {
	return ix.bloom.Test(key)
}

// Observe records key in the bloom filter. Bloom filters cannot un-learn a
// key on delete; a stale positive only costs a bucket scan, never
// correctness.
func (ix *Index) Observe(key []byte) {
	ix.bloom.Add(key)
}

// CandidatesForHash returns the slots currently holding a descriptor with
// the given key hash.
func (ix *Index) CandidatesForHash(hash uint32) []int {
	return ix.buckets[hash]
}

// Slot returns the descriptor stored at slot.
func (ix *Index) Slot(slot int) Descriptor { return ix.slots[slot] }

// UsedSlots returns every occupied slot index, in ascending order.
func (ix *Index) UsedSlots() []int {
	out := make([]int, 0, ix.cap)
	for i, ok := ix.used.NextSet(0); ok; i, ok = ix.used.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// AllocSlot reserves and returns the lowest-index free slot.
func (ix *Index) AllocSlot() (int, error) {
	i, ok := ix.used.NextClear(0)
	if !ok || int(i) >= ix.cap {
		return 0, ErrFull
	}
	ix.used.Set(i)
	return int(i), nil
}

// FreeSlot releases a slot back to the free pool. The caller must already
// have removed it from its hash bucket.
func (ix *Index) FreeSlot(slot int) {
	ix.used.Clear(uint(slot))
	ix.slots[slot] = Descriptor{}
}

// Set overwrites the descriptor stored at slot.
func (ix *Index) Set(slot int, d Descriptor) { ix.slots[slot] = d }

// AddToBucket records that slot now holds a descriptor with the given
// hash.
func (ix *Index) AddToBucket(hash uint32, slot int) {
	ix.buckets[hash] = append(ix.buckets[hash], slot)
}

// RemoveFromBucket undoes AddToBucket.
func (ix *Index) RemoveFromBucket(hash uint32, slot int) {
	b := ix.buckets[hash]
	for i, s := range b {
		if s == slot {
			ix.buckets[hash] = append(b[:i], b[i+1:]...)
			return
		}
	}
}
