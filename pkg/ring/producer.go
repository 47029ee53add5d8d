package ring

// WriteLease is the producer's exclusive claim on a slot between
// AcquireForWrite and Commit. The claim is expressed by the slot's cleared
// valid flag rather than a hold-count: readers can never reach the slot
// while the lease is open, so no counter is needed (single-producer model).
type WriteLease[T any] struct {
	b         *Buffer[T]
	idx       int
	committed bool
}

// AcquireForWrite locates a slot eligible for reuse and claims it for
// writing. Slots skipped by earlier scans are rechecked first; otherwise the
// scan walks forward from newest, remembering every busy slot it passes.
// Returns ErrExhausted when a full lap finds nothing reusable — the caller
// decides whether to drop the write or retry later.
//
// The caller must not hold a second uncommitted WriteLease concurrently.
func (b *Buffer[T]) AcquireForWrite() (*WriteLease[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := none
	for i := range b.skipped {
		if s := &b.slots[i]; s.valid && s.holds == 0 {
			delete(b.skipped, i)
			b.unlinkLocked(i)
			idx = i
			break
		}
	}

	if idx == none {
		i := b.newest
		for {
			i = b.slots[i].next
			if i == b.newest {
				// Full lap, every other slot is borrowed or mid-write.
				b.drops++
				return nil, ErrExhausted
			}
			if b.slots[i].valid && b.slots[i].holds == 0 {
				break
			}
			b.skipped[i] = struct{}{}
		}
		idx = i
		// The chosen slot leaves the retained span, so its successor
		// becomes the oldest slot still guaranteed retained. A slot taken
		// from the skipped set was already outside the span: oldest stays.
		b.oldest = b.slots[idx].next
	}

	// Close the circle over newest -> oldest; the claimed slot hangs off
	// newest until Commit splices it back in as the new newest.
	b.slots[idx].prev = b.newest
	b.slots[b.newest].next = b.oldest
	b.slots[b.oldest].prev = b.newest
	b.slots[idx].valid = false

	return &WriteLease[T]{b: b, idx: idx}, nil
}

// unlinkLocked detaches a recycle candidate that is still wired into the
// retained cycle, which happens when a past scan gave up after a full lap
// and left its skipped slots linked. Without this a claimed slot would stay
// reachable by reader walks mid-write. Candidates that already dangle from
// an earlier successful scan carry stale links pointing into the cycle; for
// those, rewiring the pointed-to neighbors would cut live slots out, so they
// are left untouched. Caller holds b.mu.
func (b *Buffer[T]) unlinkLocked(idx int) {
	prev, next := b.slots[idx].prev, b.slots[idx].next
	if b.slots[prev].next != idx || b.slots[next].prev != idx {
		return // dangling already
	}
	b.slots[prev].next = next
	b.slots[next].prev = prev
	if b.oldest == idx {
		b.oldest = next
	}
}

// Payload returns a pointer into the claimed slot for writing in place.
// Must not be used after Commit.
func (w *WriteLease[T]) Payload() *T {
	if w.committed {
		panic("ring: payload access after commit")
	}
	return &w.b.slots[w.idx].payload
}

// Set replaces the claimed slot's payload wholesale.
func (w *WriteLease[T]) Set(v T) {
	*w.Payload() = v
}

// Abort gives the claimed slot up without publishing it: the old payload is
// marked readable-eligible again and the slot parked in the recycle-candidate
// set, so the next write attempt picks it up first. Newest and oldest do not
// move. Use it when filling the payload failed; the lease is consumed.
func (w *WriteLease[T]) Abort() {
	b := w.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if w.committed {
		panic("ring: abort of an already committed write lease")
	}
	w.committed = true

	b.slots[w.idx].valid = true
	b.skipped[w.idx] = struct{}{}
}

// Commit publishes the claimed slot as newest and wakes every waiter.
// Must be called exactly once per successful AcquireForWrite; committing
// twice or committing a slot the lease does not claim panics.
func (w *WriteLease[T]) Commit() {
	b := w.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if w.committed {
		panic("ring: double commit of a write lease")
	}
	if b.slots[w.idx].valid {
		panic("ring: commit of a slot that is not claimed")
	}
	w.committed = true

	b.slots[b.newest].next = w.idx
	b.slots[w.idx].prev = b.newest
	b.newest = w.idx

	// Keep the circle: newest.next == oldest, oldest.prev == newest.
	b.slots[b.newest].next = b.oldest
	b.slots[b.oldest].prev = b.newest

	b.slots[w.idx].valid = true
	b.commits++
	b.broadcastLocked()
}
