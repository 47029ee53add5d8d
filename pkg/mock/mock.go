package mock

import (
	"context"
	"math/rand"
	"time"

	"github.com/borislavv/framering/pkg/config"
	"github.com/borislavv/framering/pkg/model"
)

// NewTestConfig returns a small, fully wired config for tests and benchmarks.
func NewTestConfig(capacity int) *config.Capture {
	return &config.Capture{
		Capture: config.CaptureBox{
			Env:     config.Test,
			Enabled: true,
			Logs: config.Logs{
				Level: "error",
			},
			Ring: config.Ring{
				Capacity: capacity,
			},
			Producer: config.Producer{
				FPS:      30,
				Interval: time.Second / 30,
				Frame: config.Frame{
					Width:  64,
					Height: 48,
					Format: "gray8",
				},
			},
		},
	}
}

// GenerateFrames produces num frames with deterministic, distinguishable
// pixel payloads: frame i is filled with the byte value i. Used for
// insertion-order assertions in tests and as ballast in benchmarks.
func GenerateFrames(cfg *config.Capture, num int) []*model.Frame {
	frames := make([]*model.Frame, 0, num)
	for i := 0; i < num; i++ {
		f := model.NewFrame(cfg)
		f.FillInPlace(uint64(i), time.Now(), func(data []byte) {
			for j := range data {
				data[j] = byte(i)
			}
		})
		frames = append(frames, f)
	}
	return frames
}

// NoiseSource is a capture source yielding pseudo-random pixel data, for
// pipeline tests that need a producer without camera hardware.
type NoiseSource struct {
	seq uint64
}

func NewNoiseSource() *NoiseSource {
	return &NoiseSource{}
}

func (s *NoiseSource) Fill(_ context.Context, f *model.Frame) error {
	s.seq++
	f.FillInPlace(s.seq, time.Now(), func(data []byte) {
		for j := range data {
			data[j] = byte(rand.Uint32())
		}
	})
	return nil
}
