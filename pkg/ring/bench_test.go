package ring

import (
	"testing"
)

func BenchmarkAcquireCommit(b *testing.B) {
	buf, err := New[int](64)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := buf.AcquireForWrite()
		if err != nil {
			b.Fatal(err)
		}
		w.Set(i)
		w.Commit()
	}
}

func BenchmarkCurrentReleaseParallel(b *testing.B) {
	buf, err := New[int](64)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l := buf.Current()
			_ = l.Value()
			l.Release()
		}
	})
}

func BenchmarkProducerWithParallelReaders(b *testing.B) {
	buf, err := New[int](64)
	if err != nil {
		b.Fatal(err)
	}

	stop := make(chan struct{})
	defer close(stop)
	for r := 0; r < 4; r++ {
		go func() {
			for {
				select {
				case <-stop:
					return
				default:
				}
				l := buf.Current()
				_ = l.Value()
				l.Release()
			}
		}()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := buf.AcquireForWrite()
		if err != nil {
			continue
		}
		w.Set(i)
		w.Commit()
	}
}

func BenchmarkCurrentBatch8(b *testing.B) {
	buf, err := New[int](64)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ReleaseAll(buf.CurrentBatch(8))
	}
}
