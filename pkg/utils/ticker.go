package utils

import (
	"context"
	"time"
)

// NewTicker returns a ticker channel bound to the context lifetime.
// The underlying time.Ticker is stopped and the channel abandoned once
// the context is done, so background loops can range over a single select.
func NewTicker(ctx context.Context, interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-t.C:
				select {
				case ch <- tick:
				default: // slow consumer, drop the tick
				}
			}
		}
	}()

	return ch
}
