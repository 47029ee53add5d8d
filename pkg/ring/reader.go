package ring

import "context"

// Current returns the most recently committed slot, borrowed.
func (b *Buffer[T]) Current() *Lease[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leaseLocked(b.newest)
}

// Final returns the oldest retained slot, borrowed.
func (b *Buffer[T]) Final() *Lease[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leaseLocked(b.oldest)
}

// Nth walks k steps backward from newest and borrows the slot it lands on;
// Nth(0) is Current. Fails with ErrOutOfRange when k exceeds the retained
// slots — it never wraps around to stale data.
func (b *Buffer[T]) Nth(k int) (*Lease[T], error) {
	if k < 0 {
		return nil, ErrOutOfRange
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.newest
	for i := 0; i < k; i++ {
		idx = b.slots[idx].prev
		if idx == b.newest {
			return nil, ErrOutOfRange
		}
	}
	return b.leaseLocked(idx), nil
}

// CurrentBatch borrows up to n retained slots walking backward from newest,
// newest first. A result shorter than n means fewer slots are retained; that
// is a partial result, not an error.
func (b *Buffer[T]) CurrentBatch(n int) []*Lease[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}
	taken := make([]*Lease[T], 0, n)
	taken = append(taken, b.leaseLocked(b.newest))
	for i := 1; i < n; i++ {
		idx := b.slots[taken[len(taken)-1].idx].prev
		if idx == b.newest {
			break
		}
		taken = append(taken, b.leaseLocked(idx))
	}
	return taken
}

// FinalBatch borrows up to n retained slots walking forward from oldest,
// oldest first. Partial on wrap, same as CurrentBatch.
func (b *Buffer[T]) FinalBatch(n int) []*Lease[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}
	taken := make([]*Lease[T], 0, n)
	taken = append(taken, b.leaseLocked(b.oldest))
	for i := 1; i < n; i++ {
		idx := b.slots[taken[len(taken)-1].idx].next
		if idx == b.oldest {
			break
		}
		taken = append(taken, b.leaseLocked(idx))
	}
	return taken
}

// WaitForNew blocks until a commit replaces the newest slot.
func (b *Buffer[T]) WaitForNew() {
	_ = b.WaitForNewContext(context.Background())
}

// WaitForNewContext is WaitForNew with cancellation. The wake predicate is
// re-checked after every wakeup, so a single broadcast shared by many
// commits, or a spurious wakeup, cannot fool the caller.
func (b *Buffer[T]) WaitForNewContext(ctx context.Context) error {
	b.mu.Lock()
	was := b.newest
	ch := b.newData
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}

		b.mu.Lock()
		if b.newest != was {
			b.mu.Unlock()
			return nil
		}
		ch = b.newData
		b.mu.Unlock()
	}
}

// NextAfter returns the slot immediately following the leased one, blocking
// until the producer commits past it.
func (b *Buffer[T]) NextAfter(l *Lease[T]) *Lease[T] {
	next, _ := b.NextAfterContext(context.Background(), l)
	return next
}

// NextAfterContext is NextAfter with cancellation. A successor equal to
// oldest means no data has arrived beyond l yet; a successor that is
// mid-write is waited out the same way, so an invalid slot is never handed
// to the caller.
func (b *Buffer[T]) NextAfterContext(ctx context.Context, l *Lease[T]) (*Lease[T], error) {
	if l.released {
		panic("ring: next-after on a released lease")
	}
	return b.nextAfter(ctx, l.idx)
}

// Next blocks until a commit lands beyond the slot that is newest at call
// time, then borrows it.
func (b *Buffer[T]) Next() *Lease[T] {
	next, _ := b.NextContext(context.Background())
	return next
}

// NextContext is Next with cancellation.
func (b *Buffer[T]) NextContext(ctx context.Context) (*Lease[T], error) {
	b.mu.Lock()
	after := b.newest
	b.mu.Unlock()
	return b.nextAfter(ctx, after)
}

// NextBatch blocks collecting the n commits following the current newest,
// in commit order. n is clamped to the ring capacity. On cancellation every
// already-taken lease is released and the error returned.
func (b *Buffer[T]) NextBatch(n int) []*Lease[T] {
	taken, _ := b.NextBatchContext(context.Background(), n)
	return taken
}

// NextBatchContext is NextBatch with cancellation.
func (b *Buffer[T]) NextBatchContext(ctx context.Context, n int) ([]*Lease[T], error) {
	if n > len(b.slots) {
		n = len(b.slots)
	}

	b.mu.Lock()
	after := b.newest
	b.mu.Unlock()

	taken := make([]*Lease[T], 0, n)
	for i := 0; i < n; i++ {
		l, err := b.nextAfter(ctx, after)
		if err != nil {
			ReleaseAll(taken)
			return nil, err
		}
		taken = append(taken, l)
		after = l.idx
	}
	return taken, nil
}

// nextAfter borrows the successor of idx once it carries committed data.
func (b *Buffer[T]) nextAfter(ctx context.Context, idx int) (*Lease[T], error) {
	for {
		b.mu.Lock()
		nxt := b.slots[idx].next
		if nxt != b.oldest && b.slots[nxt].valid {
			l := b.leaseLocked(nxt)
			b.mu.Unlock()
			return l, nil
		}
		ch := b.newData
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}
