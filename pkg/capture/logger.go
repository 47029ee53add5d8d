package capture

import (
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/borislavv/framering/pkg/utils"
	"github.com/rs/zerolog/log"
)

// runStatsLogger runs a goroutine to periodically log capture fps, drops and
// avg fill duration per window.
func (p *Pipeline) runStatsLogger() {
	go func() {
		t := utils.NewTicker(p.ctx, time.Second*5)
		for {
			select {
			case <-p.ctx.Done():
				return
			case <-t:
				p.logAndReset()
				runtime.Gosched()
			}
		}
	}()
}

// logAndReset prints and resets stat counters for a given window (5s).
func (p *Pipeline) logAndReset() {
	const secs int64 = 5

	var (
		avg   string
		cnt   = atomic.LoadInt64(&p.count)
		drops = atomic.LoadInt64(&p.drops)
		dur   = time.Duration(atomic.LoadInt64(&p.duration))
		fps   = strconv.Itoa(int(cnt / secs))
	)

	if cnt <= 0 && drops <= 0 {
		return
	}

	if cnt > 0 {
		avg = (dur / time.Duration(cnt)).String()
	}

	logEvent := log.Info()

	if p.cfg.IsProd() {
		logEvent.
			Str("target", "capture").
			Str("fps", fps).
			Str("committed", strconv.Itoa(int(cnt))).
			Str("dropped", strconv.Itoa(int(drops))).
			Str("periodMs", "5000").
			Str("avgFillDuration", avg)
	}

	logEvent.Msgf("[capture][5s] committed %d frames (fps: %s, dropped: %d, avgFill: %s)", cnt, fps, drops, avg)

	atomic.StoreInt64(&p.count, 0)
	atomic.StoreInt64(&p.drops, 0)
	atomic.StoreInt64(&p.duration, 0)
}

// runMetricsFlusher pushes ring stats into the meter every window.
func (p *Pipeline) runMetricsFlusher() {
	p.meter.SetCapacity(p.buf.Size())

	go func() {
		t := utils.NewTicker(p.ctx, time.Second*5)
		for {
			select {
			case <-p.ctx.Done():
				return
			case <-t:
				p.flushMetrics()
			}
		}
	}()
}

func (p *Pipeline) flushMetrics() {
	st := p.buf.Stat()

	p.meter.AddCommits(st.Commits - p.lastStat.Commits)
	p.meter.AddDrops(st.Drops - p.lastStat.Drops)
	p.meter.SetHolds(st.Holds)
	p.meter.SetHeldSlots(st.HeldSlots)
	p.meter.SetRecycleCandidates(st.Skipped)
	p.lastStat = st
}
