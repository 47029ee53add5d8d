package model

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/borislavv/framering/pkg/config"
	"github.com/zeebo/xxh3"
)

// Frame is one captured image. Frames live inside ring slots and are reused
// in place for the whole ring lifetime: Fill overwrites the pixel data without
// reallocating as long as the geometry stays the same, which is the whole
// point of handing readers borrowed references instead of copies.
type Frame struct {
	seq        uint64
	capturedAt time.Time
	width      int
	height     int
	stride     int
	format     string
	data       []byte
	checksum   uint64
}

// NewFrame allocates an empty frame with the configured geometry.
func NewFrame(cfg *config.Capture) *Frame {
	fc := cfg.Capture.Producer.Frame
	stride := fc.Width * fc.BytesPerPixel()
	return &Frame{
		width:  fc.Width,
		height: fc.Height,
		stride: stride,
		format: fc.Format,
		data:   make([]byte, stride*fc.Height),
	}
}

// RestoreFrame rebuilds a frame from dumped fields. The checksum is resealed
// from the data rather than trusted from disk.
func RestoreFrame(seq uint64, capturedAt time.Time, width, height int, format string, data []byte) *Frame {
	f := &Frame{
		seq:        seq,
		capturedAt: capturedAt,
		width:      width,
		height:     height,
		stride:     len(data) / max(height, 1),
		format:     format,
		data:       data,
	}
	f.checksum = xxh3.Hash(f.data)
	return f
}

// Fill overwrites the frame in place with new pixel data and metadata.
// The previous data slice is reused when its capacity suffices.
func (f *Frame) Fill(seq uint64, capturedAt time.Time, pixels []byte) {
	f.seq = seq
	f.capturedAt = capturedAt
	if cap(f.data) >= len(pixels) {
		f.data = f.data[:len(pixels)]
	} else {
		f.data = make([]byte, len(pixels))
	}
	copy(f.data, pixels)
	f.checksum = xxh3.Hash(f.data)
}

// FillInPlace hands the internal data slice to fn for zero-copy capture
// (e.g. a camera driver writing directly into the slot) and reseals the
// checksum afterwards.
func (f *Frame) FillInPlace(seq uint64, capturedAt time.Time, fn func(data []byte)) {
	f.seq = seq
	f.capturedAt = capturedAt
	fn(f.data)
	f.checksum = xxh3.Hash(f.data)
}

func (f *Frame) Seq() uint64           { return f.seq }
func (f *Frame) CapturedAt() time.Time { return f.capturedAt }
func (f *Frame) Width() int            { return f.width }
func (f *Frame) Height() int           { return f.height }
func (f *Frame) Stride() int           { return f.stride }
func (f *Frame) Format() string        { return f.format }
func (f *Frame) Checksum() uint64      { return f.checksum }

// Data returns the pixel payload. Readers must not touch it after releasing
// the lease that keeps this frame's slot borrowed.
func (f *Frame) Data() []byte { return f.data }

// Verify recomputes the content hash and reports whether the payload still
// matches the checksum sealed at fill time. Cheap way to catch a reader that
// kept a slice past its lease while the producer recycled the slot.
func (f *Frame) Verify() bool {
	return xxh3.Hash(f.data) == f.checksum
}

func (f *Frame) Weight() int64 {
	return int64(unsafe.Sizeof(*f)) + int64(len(f.data))
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame{seq=%d %dx%d %s %dB}", f.seq, f.width, f.height, f.format, len(f.data))
}
