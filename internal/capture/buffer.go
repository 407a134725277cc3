package capture

import (
	"sync"
	"time"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"
)

// Frame is one published capture.
type Frame struct {
	Image  *raster.Raster
	Origin geometry.PointInt
	Seq    uint64 // increases by one per publish, starting at 1
	At     time.Time
}

// FrameBuffer holds only the most recent frame. Writers replace it; readers
// receive a private copy.
type FrameBuffer struct {
	mu    sync.Mutex
	frame Frame
}

// Publish stores img as the latest frame and returns its sequence number.
func (b *FrameBuffer) Publish(img *raster.Raster, origin geometry.PointInt) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = Frame{Image: img, Origin: origin, Seq: b.frame.Seq + 1, At: time.Now()}
	return b.frame.Seq
}

// Latest returns a copy of the newest frame, or false if none was
// published since the last Reset.
func (b *FrameBuffer) Latest() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame.Image == nil {
		return Frame{}, false
	}
	f := b.frame
	f.Image = b.frame.Image.Clone()
	return f, true
}

// Reset drops the stored frame. Sequence numbers keep increasing.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = Frame{Seq: b.frame.Seq}
}
