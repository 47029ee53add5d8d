package ring

// Lease is a reader's borrow guard: a slot reference paired with exactly one
// hold-count claim. While at least one lease on a slot is open the producer
// will not recycle it. Release the lease exactly once, normally with defer:
//
//	l := buf.Current()
//	defer l.Release()
//
// Releasing twice, or touching the payload after Release, is a protocol
// violation and panics.
type Lease[T any] struct {
	b        *Buffer[T]
	idx      int
	released bool
}

// leaseLocked takes one hold on idx and wraps it. Caller holds b.mu.
func (b *Buffer[T]) leaseLocked(idx int) *Lease[T] {
	b.slots[idx].holds++
	return &Lease[T]{b: b, idx: idx}
}

// releaseLocked returns one hold. Decrementing below zero would corrupt the
// recycle gate, so it fails loudly instead. Caller holds b.mu.
func (b *Buffer[T]) releaseLocked(idx int) {
	if b.slots[idx].holds == 0 {
		panic("ring: release of a slot with zero hold-count")
	}
	b.slots[idx].holds--
}

// Payload returns a pointer to the borrowed payload. It stays valid until
// Release, even as the producer keeps committing around this slot.
func (l *Lease[T]) Payload() *T {
	if l.released {
		panic("ring: payload access on a released lease")
	}
	return &l.b.slots[l.idx].payload
}

// Value copies the borrowed payload out.
func (l *Lease[T]) Value() T {
	return *l.Payload()
}

// Slot returns the borrowed slot's identity, as shown by Dump.
func (l *Lease[T]) Slot() int {
	return l.idx
}

// Release returns the hold-count claim. A slot whose count reaches zero is
// immediately eligible for recycling; its payload is not invalidated until
// the producer actually reuses it.
func (l *Lease[T]) Release() {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()

	if l.released {
		panic("ring: double release of a lease")
	}
	l.released = true
	l.b.releaseLocked(l.idx)
}

// Clone takes an additional hold on the same slot and returns the new claim,
// e.g. to hand the frame to another goroutine with its own release duty.
func (l *Lease[T]) Clone() *Lease[T] {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()

	if l.released {
		panic("ring: clone of a released lease")
	}
	return l.b.leaseLocked(l.idx)
}

// ReleaseAll releases every lease of a batch result.
func ReleaseAll[T any](leases []*Lease[T]) {
	for _, l := range leases {
		l.Release()
	}
}
