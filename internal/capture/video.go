package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"strconv"
	"sync"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoSource replays a recording through ffmpeg, one decoded PNG frame per
// Grab. When the stream ends the last frame is repeated.
type VideoSource struct {
	path   string
	cancel context.CancelFunc
	pipe   *io.PipeReader
	reader *bufio.Reader
	done   chan error
	once   sync.Once

	mu   sync.Mutex
	last *raster.Raster
	eof  bool
}

// NewVideoSource starts decoding path at fps frames per second.
func NewVideoSource(ctx context.Context, path string, fps int) (*VideoSource, error) {
	if path == "" {
		return nil, fmt.Errorf("video source: no path")
	}
	if fps <= 0 {
		fps = 5
	}

	ctx, cancel := context.WithCancel(ctx)
	r, w := io.Pipe()

	cmd := ffmpeg.Input(path).
		Output("pipe:1", ffmpeg.KwArgs{
			"format": "image2pipe",
			"vcodec": "png",
			"r":      strconv.Itoa(fps),
		}).
		WithOutput(w).
		WithErrorOutput(io.Discard)
	cmd.Context = ctx

	v := &VideoSource{
		path:   path,
		cancel: cancel,
		pipe:   r,
		reader: bufio.NewReader(r),
		done:   make(chan error, 1),
	}
	go func() {
		err := cmd.Run()
		w.CloseWithError(err)
		v.done <- err
	}()

	log.Printf("Capture: replaying %s at %d fps", path, fps)
	return v, nil
}

// Grab decodes the next frame.
func (v *VideoSource) Grab(ctx context.Context) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.eof {
		img, err := png.Decode(v.reader)
		switch {
		case err == nil:
			v.last = raster.FromImage(img)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrClosedPipe):
			v.eof = true
			log.Printf("Capture: %s ended", v.path)
		default:
			v.eof = true
			log.Printf("Capture: %s decode failed: %v", v.path, err)
		}
	}
	if v.last == nil {
		return nil, ErrNoFrame
	}
	return v.last, nil
}

// Origin is the zero point; replayed frames have no screen position.
func (v *VideoSource) Origin() geometry.PointInt { return geometry.PointInt{} }

// Close stops ffmpeg and waits for it to exit.
func (v *VideoSource) Close() error {
	v.once.Do(func() {
		v.cancel()
		v.pipe.Close()
		if err := <-v.done; err != nil && !errors.Is(err, context.Canceled) {
			// ffmpeg exits non-zero when its output pipe closes early.
			log.Printf("Capture: ffmpeg exited: %v", err)
		}
	})
	return nil
}
