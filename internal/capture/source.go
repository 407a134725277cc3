// Package capture produces frames for the analysis pipeline: live screen
// grabs, recorded video replay or still images, published through a
// single-slot latest-wins buffer.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"
)

// ErrNoFrame reports that a source has nothing to deliver this cycle. It is
// never fatal; the caller simply tries again on its next tick.
var ErrNoFrame = errors.New("no frame available")

// Source yields frames on demand.
type Source interface {
	// Grab returns the current contents of the surface.
	Grab(ctx context.Context) (*raster.Raster, error)
	// Origin is the screen position of the frame's top-left pixel.
	Origin() geometry.PointInt
	Close() error
}

// Mode selects the kind of source.
type Mode string

const (
	ModeScreen Mode = "screen"
	ModeVideo  Mode = "video"
	ModeFile   Mode = "file"
)

// Options configures Open.
type Options struct {
	Mode    Mode
	Display int              // screen mode: display index when Rect is empty
	Rect    geometry.RectInt // screen mode: explicit capture rectangle
	Video   string           // video mode: path or URL understood by ffmpeg
	FPS     int              // video mode: decode rate
	Images  []string         // file mode: images served in rotation
}

// Open creates the source described by opts.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch Mode(strings.ToLower(string(opts.Mode))) {
	case ModeScreen, "":
		return NewScreenSource(opts.Display, opts.Rect), nil
	case ModeVideo:
		return NewVideoSource(ctx, opts.Video, opts.FPS)
	case ModeFile:
		return NewFileSource(opts.Images...)
	default:
		return nil, fmt.Errorf("unknown capture mode %q", opts.Mode)
	}
}
