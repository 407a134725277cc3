// Package raster provides the immutable pixel buffer passed between the
// frame sources and every recognition stage.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"sweeper-vision/pkg/geometry"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Raster is a rectangular pixel buffer in OpenCV channel order: BGR for
// three channels, BGRA for four. A Raster is never modified after it is
// constructed; every derived image is a new Raster.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte // row-major, Width*Channels bytes per row
}

// New allocates a zeroed raster. Channels must be 3 or 4.
func New(width, height, channels int) *Raster {
	if channels != 3 && channels != 4 {
		channels = 3
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// FromBytes wraps an existing pixel slice after validating its length.
func FromBytes(width, height, channels int, pix []byte) (*Raster, error) {
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("pixel buffer has %d bytes, want %d", len(pix), width*height*channels)
	}
	return &Raster{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

// FromImage converts a Go image into a BGRA raster.
func FromImage(src image.Image) *Raster {
	b := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}

	w, h := b.Dx(), b.Dy()
	out := New(w, h, 4)
	for y := 0; y < h; y++ {
		srcRow := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dstRow := out.Pix[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			dstRow[i+0] = srcRow[i+2]
			dstRow[i+1] = srcRow[i+1]
			dstRow[i+2] = srcRow[i+0]
			dstRow[i+3] = srcRow[i+3]
		}
	}
	return out
}

// FromMat copies an 8-bit OpenCV Mat into a raster. Single-channel input is
// expanded to BGR.
func FromMat(m gocv.Mat) (*Raster, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty mat")
	}

	src := m.Clone()
	defer src.Close()

	switch src.Channels() {
	case 1:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(src, &bgr, gocv.ColorGrayToBGR)
		return FromBytes(bgr.Cols(), bgr.Rows(), 3, bgr.ToBytes())
	case 3, 4:
		return FromBytes(src.Cols(), src.Rows(), src.Channels(), src.ToBytes())
	default:
		return nil, fmt.Errorf("unsupported channel count %d", src.Channels())
	}
}

// Load reads an image file (png, jpeg, bmp, tiff) into a raster.
func Load(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// Empty reports whether the raster holds no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0 || len(r.Pix) < r.Width*r.Height*r.Channels
}

// Bounds returns the raster rectangle at origin.
func (r *Raster) Bounds() geometry.RectInt {
	if r == nil {
		return geometry.RectInt{}
	}
	return geometry.RectInt{Width: r.Width, Height: r.Height}
}

// BGRAt returns the colour channels of the pixel at (x, y).
func (r *Raster) BGRAt(x, y int) (b, g, red uint8) {
	i := (y*r.Width + x) * r.Channels
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	if r == nil {
		return nil
	}
	pix := make([]byte, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: pix}
}

// Crop copies the part of the raster inside rect. The rectangle is first
// intersected with the raster bounds; an empty intersection yields nil.
func (r *Raster) Crop(rect geometry.RectInt) *Raster {
	if r.Empty() {
		return nil
	}
	rect = rect.Intersect(r.Bounds())
	if rect.Empty() {
		return nil
	}

	out := New(rect.Width, rect.Height, r.Channels)
	rowBytes := rect.Width * r.Channels
	for y := 0; y < rect.Height; y++ {
		src := ((rect.Y+y)*r.Width + rect.X) * r.Channels
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], r.Pix[src:src+rowBytes])
	}
	return out
}

// Mat returns a newly allocated three-channel BGR Mat. The caller owns it.
func (r *Raster) Mat() (gocv.Mat, error) {
	if r.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty raster")
	}

	mt := gocv.MatTypeCV8UC3
	if r.Channels == 4 {
		mt = gocv.MatTypeCV8UC4
	}
	// NewMatFromBytes borrows the Go slice, so the result is always copied.
	view, err := gocv.NewMatFromBytes(r.Height, r.Width, mt, r.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap raster: %w", err)
	}
	defer view.Close()

	if r.Channels == 4 {
		bgr := gocv.NewMat()
		gocv.CvtColor(view, &bgr, gocv.ColorBGRAToBGR)
		return bgr, nil
	}
	return view.Clone(), nil
}

// RGBA converts the raster to a Go image.
func (r *Raster) RGBA() *image.RGBA {
	if r.Empty() {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			b, g, red := r.BGRAt(x, y)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = red
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
	return out
}
