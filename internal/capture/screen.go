package capture

import (
	"context"
	"fmt"
	"image"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	"github.com/kbinani/screenshot"
)

// ScreenSource grabs a rectangle of the desktop.
type ScreenSource struct {
	display int
	rect    geometry.RectInt
}

// NewScreenSource captures rect, or the whole of display when rect is empty.
func NewScreenSource(display int, rect geometry.RectInt) *ScreenSource {
	return &ScreenSource{display: display, rect: rect}
}

func (s *ScreenSource) bounds() (image.Rectangle, error) {
	if !s.rect.Empty() {
		return s.rect.ToImageRect(), nil
	}
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays: %w", ErrNoFrame)
	}
	if s.display < 0 || s.display >= n {
		return image.Rectangle{}, fmt.Errorf("display %d of %d: %w", s.display, n, ErrNoFrame)
	}
	return screenshot.GetDisplayBounds(s.display), nil
}

// Grab captures the configured area.
func (s *ScreenSource) Grab(ctx context.Context) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.bounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(b)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %v: %w", b, err, ErrNoFrame)
	}
	frame := raster.FromImage(img)
	if frame.Empty() {
		return nil, ErrNoFrame
	}
	return frame, nil
}

// Origin returns the screen position of the capture area.
func (s *ScreenSource) Origin() geometry.PointInt {
	b, err := s.bounds()
	if err != nil {
		return geometry.PointInt{}
	}
	return geometry.PointInt{X: b.Min.X, Y: b.Min.Y}
}

func (s *ScreenSource) Close() error { return nil }
