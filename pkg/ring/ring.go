// Package ring implements a fixed-capacity circular buffer shared between a
// single producer and any number of readers. Payloads are written and read in
// place: readers borrow slots through hold-counted leases and the producer
// recycles only slots nobody is borrowing, so a borrowed payload stays valid
// while the producer keeps committing new data around it.
package ring

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrExhausted is the producer-side backpressure signal: every slot is
	// either borrowed or mid-write, the write attempt must be dropped.
	ErrExhausted = errors.New("ring: no free slot available")

	// ErrOutOfRange reports an Nth walk past the retained slots.
	ErrOutOfRange = errors.New("ring: nth exceeds retained slots")

	// ErrBadCapacity rejects rings too small to hold both a newest and an
	// oldest slot.
	ErrBadCapacity = errors.New("ring: capacity must be at least 2")

	// ErrOutstandingHolds reports a Close while leases are still borrowed.
	ErrOutstandingHolds = errors.New("ring: close with outstanding holds")
)

const none = -1

// slot is one storage cell. Slots are created once at construction and
// reused in place forever; next and prev are indices into Buffer.slots, so
// no link can dangle. Never touch fields outside of Buffer methods holding
// the lock.
type slot[T any] struct {
	payload T
	next    int
	prev    int
	holds   int  // outstanding reader borrows
	valid   bool // false while the producer is writing this slot
}

// Buffer owns the fixed slot pool and the two distinguished references:
// newest (most recently committed) and oldest (oldest slot still retained).
// One mutex guards all topology and slot metadata; commits are announced by
// closing the newData generation channel.
//
// Invariants outside of the lock:
//   - slots[newest].next == oldest and slots[oldest].prev == newest;
//   - a slot with valid == false is never reachable by a reader accessor;
//   - a slot with holds > 0 is never chosen for recycling.
type Buffer[T any] struct {
	mu      sync.Mutex
	slots   []slot[T]
	newest  int
	oldest  int
	skipped map[int]struct{} // recycle candidates observed busy by past scans
	newData chan struct{}

	commits uint64
	drops   uint64
}

// New creates a buffer of the given capacity with zero-valued payloads.
// All slots start committed, mirroring a pre-populated capture ring.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity < 2 {
		return nil, ErrBadCapacity
	}
	b := &Buffer[T]{
		slots:   make([]slot[T], capacity),
		skipped: make(map[int]struct{}, capacity),
		newData: make(chan struct{}),
	}
	b.link()
	return b, nil
}

// From builds a buffer over externally constructed payloads, taking
// ownership of them. payloads[0] lands in the oldest slot, the last
// payload in the newest.
func From[T any](payloads []T) (*Buffer[T], error) {
	b, err := New[T](len(payloads))
	if err != nil {
		return nil, err
	}
	for i := range payloads {
		b.slots[i].payload = payloads[i]
	}
	return b, nil
}

// link wires the pool into a single cycle. The last slot is newest and its
// successor, slot 0, is oldest.
func (b *Buffer[T]) link() {
	n := len(b.slots)
	for i := range b.slots {
		b.slots[i].next = (i + 1) % n
		b.slots[i].prev = (i - 1 + n) % n
		b.slots[i].valid = true
	}
	b.newest = n - 1
	b.oldest = 0
}

// broadcastLocked wakes every waiter by closing the generation channel and
// arming a fresh one. Waiters must re-check their predicate after waking.
func (b *Buffer[T]) broadcastLocked() {
	close(b.newData)
	b.newData = make(chan struct{})
}

// Size returns the fixed slot count.
func (b *Buffer[T]) Size() int {
	return len(b.slots)
}

// Stats is a point-in-time snapshot of ring health counters.
type Stats struct {
	Capacity  int
	Commits   uint64 // successful commits since construction
	Drops     uint64 // failed write acquisitions (exhaustion)
	Holds     int    // total outstanding borrow claims
	HeldSlots int    // slots with at least one claim
	Skipped   int    // recycle-candidate set size
}

func (b *Buffer[T]) Stat() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Stats{
		Capacity: len(b.slots),
		Commits:  b.commits,
		Drops:    b.drops,
		Skipped:  len(b.skipped),
	}
	for i := range b.slots {
		if h := b.slots[i].holds; h > 0 {
			st.Holds += h
			st.HeldSlots++
		}
	}
	return st
}

// Dump renders the retained ring order for debugging: slot indices walked
// forward from the slot after newest, the oldest one bracketed and the
// newest braced, e.g. "[0] -> 1 -> 2 -> {3}".
func (b *Buffer[T]) Dump() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	idx := b.newest
	for {
		idx = b.slots[idx].next
		switch idx {
		case b.newest:
			fmt.Fprintf(&sb, "{%d}", idx)
			return sb.String()
		case b.oldest:
			fmt.Fprintf(&sb, "[%d] -> ", idx)
		default:
			fmt.Fprintf(&sb, "%d -> ", idx)
		}
	}
}

// Close verifies the ring is quiescent. Tearing a ring down while leases are
// outstanding is a programming error and is reported instead of masked:
// silent success here would hide a leaked claim.
func (b *Buffer[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.slots {
		if h := b.slots[i].holds; h != 0 {
			return fmt.Errorf("%w: slot %d still has %d", ErrOutstandingHolds, i, h)
		}
	}
	return nil
}
