package model

import (
	"bytes"
	"testing"
	"time"

	"github.com/borislavv/framering/pkg/config"
)

func testConfig() *config.Capture {
	return &config.Capture{
		Capture: config.CaptureBox{
			Env: config.Test,
			Producer: config.Producer{
				Frame: config.Frame{Width: 32, Height: 16, Format: "yuyv"},
			},
		},
	}
}

func TestNewFrameGeometry(t *testing.T) {
	f := NewFrame(testConfig())

	if f.Width() != 32 || f.Height() != 16 {
		t.Fatalf("geometry = %dx%d, want 32x16", f.Width(), f.Height())
	}
	if f.Stride() != 64 { // yuyv is two bytes per pixel
		t.Fatalf("stride = %d, want 64", f.Stride())
	}
	if len(f.Data()) != 64*16 {
		t.Fatalf("data length = %d, want %d", len(f.Data()), 64*16)
	}
}

func TestFillSealsChecksum(t *testing.T) {
	f := NewFrame(testConfig())

	pixels := bytes.Repeat([]byte{0xAB}, 64*16)
	now := time.Now()
	f.Fill(7, now, pixels)

	if f.Seq() != 7 {
		t.Fatalf("seq = %d, want 7", f.Seq())
	}
	if !f.CapturedAt().Equal(now) {
		t.Fatalf("capturedAt = %s, want %s", f.CapturedAt(), now)
	}
	if !f.Verify() {
		t.Fatal("freshly filled frame fails verification")
	}

	f.Data()[0] ^= 0xFF
	if f.Verify() {
		t.Fatal("corrupted frame passes verification")
	}
}

func TestFillReusesAllocation(t *testing.T) {
	f := NewFrame(testConfig())
	first := &f.Data()[0]

	f.Fill(1, time.Now(), bytes.Repeat([]byte{1}, 64*16))
	if &f.Data()[0] != first {
		t.Fatal("fill of same-sized payload reallocated the data slice")
	}

	f.Fill(2, time.Now(), bytes.Repeat([]byte{2}, 64*16*2))
	if len(f.Data()) != 64*16*2 {
		t.Fatalf("grown fill length = %d, want %d", len(f.Data()), 64*16*2)
	}
}

func TestFillInPlace(t *testing.T) {
	f := NewFrame(testConfig())

	f.FillInPlace(3, time.Now(), func(data []byte) {
		for i := range data {
			data[i] = byte(i)
		}
	})
	if !f.Verify() {
		t.Fatal("in-place filled frame fails verification")
	}
	if f.Seq() != 3 {
		t.Fatalf("seq = %d, want 3", f.Seq())
	}
}

func TestRestoreFrameResealsChecksum(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 640)
	f := RestoreFrame(9, time.Now(), 32, 10, "yuyv", data)

	if !f.Verify() {
		t.Fatal("restored frame fails verification")
	}
	if f.Stride() != 64 {
		t.Fatalf("restored stride = %d, want 64", f.Stride())
	}
}

func TestWeightCoversPayload(t *testing.T) {
	f := NewFrame(testConfig())
	if f.Weight() <= int64(len(f.Data())) {
		t.Fatalf("weight = %d, must exceed payload size %d", f.Weight(), len(f.Data()))
	}
}
