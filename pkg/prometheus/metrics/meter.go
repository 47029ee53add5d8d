package metrics

import (
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/borislavv/framering/pkg/prometheus/metrics/keyword"
)

// Meter defines methods for recording ring and capture metrics.
type Meter interface {
	AddCommits(n uint64)
	AddDrops(n uint64)
	SetHolds(count int)
	SetHeldSlots(count int)
	SetRecycleCandidates(count int)
	SetCapacity(count int)
	NewFillTimer(ring string) *Timer
	FlushFillTimer(t *Timer)
	SetReaderLag(reader string, frames int)
}

// Metrics implements Meter using VictoriaMetrics metrics.
type Metrics struct{}

// New creates a new Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// AddCommits increments the committed frames counter.
func (m *Metrics) AddCommits(n uint64) {
	metrics.GetOrCreateCounter(keyword.TotalCommitsMetricName).Add(int(n))
}

// AddDrops increments the dropped writes counter (ring exhaustion).
func (m *Metrics) AddDrops(n uint64) {
	metrics.GetOrCreateCounter(keyword.TotalDropsMetricName).Add(int(n))
}

// SetHolds updates the gauge for total outstanding borrow claims.
func (m *Metrics) SetHolds(count int) {
	metrics.GetOrCreateCounter(keyword.RingHoldsMetricName).Set(uint64(count))
}

// SetHeldSlots updates the gauge for slots with at least one claim.
func (m *Metrics) SetHeldSlots(count int) {
	metrics.GetOrCreateCounter(keyword.RingHeldSlotsMetricName).Set(uint64(count))
}

// SetRecycleCandidates updates the gauge for the recycle-candidate set size.
func (m *Metrics) SetRecycleCandidates(count int) {
	metrics.GetOrCreateCounter(keyword.RingSkippedMetricName).Set(uint64(count))
}

// SetCapacity records the fixed slot count.
func (m *Metrics) SetCapacity(count int) {
	metrics.GetOrCreateCounter(keyword.RingCapacityMetricName).Set(uint64(count))
}

// SetReaderLag records how many frames behind newest a reader runs.
func (m *Metrics) SetReaderLag(reader string, frames int) {
	buf := make([]byte, 0, 48)
	buf = append(buf, keyword.ReaderLagFramesMetricName...)
	buf = append(buf, `{reader="`...)
	buf = append(buf, reader...)
	buf = append(buf, `"}`...)

	metrics.GetOrCreateCounter(string(buf)).Set(uint64(frames))
}

// Timer tracks start of an operation for timing metrics.
type Timer struct {
	name  string
	start time.Time
}

// NewFillTimer creates a Timer for measuring one acquire-fill-commit cycle.
func (m *Metrics) NewFillTimer(ring string) *Timer {
	buf := make([]byte, 0, 48)
	buf = append(buf, keyword.FrameFillTimeMetricName...)
	buf = append(buf, `{ring="`...)
	buf = append(buf, ring...)
	buf = append(buf, `"}`...)

	return &Timer{name: string(buf), start: time.Now()}
}

// FlushFillTimer records the elapsed time since Timer creation into a histogram.
func (m *Metrics) FlushFillTimer(t *Timer) {
	metrics.GetOrCreateHistogram(t.name).Update(time.Since(t.start).Seconds())
}
