package capture

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/borislavv/framering/pkg/config"
	"github.com/borislavv/framering/pkg/model"
	metricsservice "github.com/borislavv/framering/pkg/prometheus/metrics"
	"github.com/borislavv/framering/pkg/ring"
	"github.com/borislavv/framering/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Source fills a frame in place with freshly captured data. Payload
// construction policy is entirely the source's business: the pipeline only
// hands it the recycled frame of the slot it just claimed.
type Source interface {
	Fill(ctx context.Context, f *model.Frame) error
}

// Pipeline is the single producer of a frame ring: it paces the source,
// claims a slot per tick, fills it and commits. Readers attach with Stream
// or go straight to the ring. There is no backpressure toward readers — a
// tick that finds every slot borrowed drops the frame and moves on.
type Pipeline struct {
	ctx    context.Context
	cfg    *config.Capture
	buf    *ring.Buffer[*model.Frame]
	source Source
	meter  metricsservice.Meter

	// window counters for the stats logger and metrics flusher
	count    int64
	duration int64
	drops    int64

	lastStat ring.Stats
}

// NewPipeline builds the ring (restoring a dump when persistence is enabled
// and one exists) and wires the producer. Run starts it.
func NewPipeline(ctx context.Context, cfg *config.Capture, source Source, meter metricsservice.Meter) (*Pipeline, error) {
	p := &Pipeline{
		ctx:    ctx,
		cfg:    cfg,
		source: source,
		meter:  meter,
	}

	if cfg.Capture.Logs.Level != "" {
		level, err := zerolog.ParseLevel(cfg.Capture.Logs.Level)
		if err != nil {
			return nil, err
		}
		zerolog.SetGlobalLevel(level)
	}

	if cfg.Capture.Persistence.Dump.IsEnabled {
		if frames, err := NewDumper(cfg).Load(ctx); err != nil {
			log.Error().Err(err).Msg("[dump] failed to load, starting with a fresh ring")
		} else if len(frames) >= 2 {
			buf, err := ring.From(frames)
			if err != nil {
				return nil, fmt.Errorf("restore ring from dump: %w", err)
			}
			p.buf = buf
			log.Info().Msgf("[capture] ring restored from dump (%d frames)", len(frames))
		}
	}

	if p.buf == nil {
		frames := make([]*model.Frame, cfg.Capture.Ring.Capacity)
		for i := range frames {
			frames[i] = model.NewFrame(cfg)
		}
		buf, err := ring.From(frames)
		if err != nil {
			return nil, fmt.Errorf("build ring: %w", err)
		}
		p.buf = buf
	}

	return p, nil
}

// Ring exposes the underlying buffer for readers and diagnostics.
func (p *Pipeline) Ring() *ring.Buffer[*model.Frame] {
	return p.buf
}

// Run starts the producer loop and the background stat loops.
func (p *Pipeline) Run() {
	log.Info().Msgf("[capture] starting (capacity=%d, interval=%s)",
		p.buf.Size(), p.cfg.Capture.Producer.Interval)

	go p.produce()

	if p.cfg.Capture.Logs.Stats {
		p.runStatsLogger()
	}
	if p.cfg.Capture.Metrics.Enabled {
		p.runMetricsFlusher()
	}
}

// produce is the producer loop. With a configured interval it is paced by a
// ticker; otherwise it spins as fast as the source delivers.
func (p *Pipeline) produce() {
	var tick <-chan time.Time
	if interval := p.cfg.Capture.Producer.Interval; interval > 0 {
		tick = utils.NewTicker(p.ctx, interval)
	}

	for {
		if tick != nil {
			select {
			case <-p.ctx.Done():
				return
			case <-tick:
			}
		} else if p.ctx.Err() != nil {
			return
		}

		p.captureOne()

		if tick == nil {
			runtime.Gosched()
		}
	}
}

// captureOne runs one acquire-fill-commit cycle. Exhaustion is the designed
// drop signal, not an error; a failing source aborts the claim so the slot
// returns to the recycle pool untouched.
func (p *Pipeline) captureOne() {
	timer := p.meter.NewFillTimer("capture")
	start := time.Now()

	w, err := p.buf.AcquireForWrite()
	if err != nil {
		atomic.AddInt64(&p.drops, 1)
		log.Debug().Msg("[capture] ring exhausted, frame dropped")
		return
	}

	frame := *w.Payload()
	if err = p.source.Fill(p.ctx, frame); err != nil {
		w.Abort()
		log.Error().Err(err).Msg("[capture] source fill failed, slot recycled")
		return
	}
	w.Commit()

	atomic.AddInt64(&p.count, 1)
	atomic.AddInt64(&p.duration, int64(time.Since(start)))
	p.meter.FlushFillTimer(timer)
}

// Dump snapshots the retained frames to disk per the persistence config.
func (p *Pipeline) Dump(ctx context.Context) error {
	return NewDumper(p.cfg).Dump(ctx, p.buf)
}

// Stream delivers committed frames to fn in commit order, starting with the
// frame that is newest at call time. fn runs while the slot is borrowed and
// must not retain the frame afterwards. Returns when fn fails or the context
// is done.
func (p *Pipeline) Stream(ctx context.Context, fn func(f *model.Frame) error) error {
	l := p.buf.Current()
	for {
		if err := fn(l.Value()); err != nil {
			l.Release()
			return err
		}
		next, err := p.buf.NextAfterContext(ctx, l)
		l.Release()
		if err != nil {
			return err
		}
		l = next
	}
}
