package capture

import (
	"context"
	"fmt"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"
)

// FileSource serves still images, advancing to the next one on every Grab
// and wrapping around at the end.
type FileSource struct {
	frames []*raster.Raster
	next   int
}

// NewFileSource loads every path up front.
func NewFileSource(paths ...string) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("file source: no images")
	}
	s := &FileSource{}
	for _, p := range paths {
		r, err := raster.Load(p)
		if err != nil {
			return nil, fmt.Errorf("file source %s: %w", p, err)
		}
		s.frames = append(s.frames, r)
	}
	return s, nil
}

// NewStaticSource serves the given rasters.
func NewStaticSource(frames ...*raster.Raster) *FileSource {
	return &FileSource{frames: frames}
}

func (s *FileSource) Grab(ctx context.Context) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.frames) == 0 {
		return nil, ErrNoFrame
	}
	f := s.frames[s.next%len(s.frames)]
	s.next++
	if f.Empty() {
		return nil, ErrNoFrame
	}
	return f, nil
}

func (s *FileSource) Origin() geometry.PointInt { return geometry.PointInt{} }

func (s *FileSource) Close() error { return nil }
