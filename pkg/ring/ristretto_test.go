package ring_test

import (
	"context"
	"testing"

	"github.com/borislavv/framering/pkg/mock"
	"github.com/borislavv/framering/pkg/model"
	"github.com/borislavv/framering/pkg/ring"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// A general-purpose cache is the obvious alternative for "keep the last
// frames around": these benchmarks pit the ring against ristretto for the
// latest-frame hot path. The ring also guarantees retention while borrowed,
// which a cache cannot.

type ristrettoFrames struct {
	c *ristretto.Cache
}

func newRistrettoFrames(maxCost int64) *ristrettoFrames {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return &ristrettoFrames{c: cache}
}

func (r *ristrettoFrames) Set(f *model.Frame) {
	r.c.Set(f.Seq(), f, f.Weight())
}

func (r *ristrettoFrames) Get(seq uint64) (*model.Frame, bool) {
	val, ok := r.c.Get(seq)
	if !ok {
		return nil, false
	}
	return val.(*model.Frame), true
}

func BenchmarkRingLatestFrame(b *testing.B) {
	cfg := mock.NewTestConfig(64)
	buf, err := ring.From(mock.GenerateFrames(cfg, 64))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l := buf.Current()
			_ = l.Value().Seq()
			l.Release()
		}
	})
}

func BenchmarkRistrettoLatestFrame(b *testing.B) {
	cfg := mock.NewTestConfig(64)
	frames := mock.GenerateFrames(cfg, 64)

	db := newRistrettoFrames(1 << 30)
	var last uint64
	for _, f := range frames {
		db.Set(f)
		last = f.Seq()
	}
	db.c.Wait()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if f, ok := db.Get(last); ok {
				_ = f.Seq()
			}
		}
	})
}

func BenchmarkRingProduceConsumeFrames(b *testing.B) {
	cfg := mock.NewTestConfig(64)
	buf, err := ring.From(mock.GenerateFrames(cfg, 64))
	if err != nil {
		b.Fatal(err)
	}
	src := mock.NewNoiseSource()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := buf.AcquireForWrite()
		if err != nil {
			continue
		}
		if err = src.Fill(ctx, *w.Payload()); err != nil {
			w.Abort()
			continue
		}
		w.Commit()

		l := buf.Current()
		_ = l.Value().Checksum()
		l.Release()
	}
}
