package detect

import (
	"image"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	"github.com/cespare/xxhash/v2"
	"gocv.io/x/gocv"
)

// HUDSignature fingerprints the visible HUD timer digits.
type HUDSignature uint64

// TimerRegion returns the part of the HUD band holding the timer digits:
// the rightmost TimerFraction of the top HUDTopPercent of the image.
func TimerRegion(width, height int, p Params) geometry.RectInt {
	bandH := hudBandHeight(height, p.HUDTopPercent)
	tw := max(1, int(float64(width)*p.TimerFraction))
	return geometry.RectInt{X: width - tw, Y: 0, Width: tw, Height: bandH}.ClipTo(width, height)
}

// CounterRegion returns the left part of the HUD band, where the remaining
// mine counter is drawn.
func CounterRegion(width, height int, p Params) geometry.RectInt {
	bandH := hudBandHeight(height, p.HUDTopPercent)
	cw := max(1, int(float64(width)*p.TimerFraction))
	return geometry.RectInt{Width: cw, Height: bandH}.ClipTo(width, height)
}

// HUDFingerprint hashes the binarised HUD timer digits. Identical digits
// give identical signatures; an empty image hashes to zero.
func HUDFingerprint(img *raster.Raster, p Params) HUDSignature {
	if img.Empty() {
		return 0
	}
	timer := img.Crop(TimerRegion(img.Width, img.Height, p))
	if timer.Empty() {
		return 0
	}

	mask, err := HUDMask(timer, p)
	if err != nil {
		return 0
	}
	defer func() { mask.Close() }()

	// Normalise to the lit digits so their detail survives the downscale.
	if lit, ok := nonZeroBounds(mask); ok {
		roi := mask.Region(lit.ToImageRect())
		tight := roi.Clone()
		roi.Close()
		mask.Close()
		mask = tight
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(mask, &small, image.Pt(p.SignatureWidth, p.SignatureHeight), 0, 0, gocv.InterpolationArea)
	gocv.Threshold(small, &small, 127, 255, gocv.ThresholdBinary)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2, 2))
	defer kernel.Close()
	gocv.Erode(small, &small, kernel)

	return HUDSignature(xxhash.Sum64(packBits(small.ToBytes())))
}

// packBits packs one bit per byte, most significant first.
func packBits(data []byte) []byte {
	out := make([]byte, (len(data)+7)/8)
	for i, v := range data {
		if v != 0 {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// HUDTracker reports when the HUD timer changes between frames.
type HUDTracker struct {
	Params Params

	last   HUDSignature
	primed bool
}

// NewHUDTracker creates a tracker whose first check always reports a change.
func NewHUDTracker(p Params) *HUDTracker {
	return &HUDTracker{Params: p}
}

// HasChanged fingerprints img, stores the signature and reports whether it
// differs from the previous one.
func (t *HUDTracker) HasChanged(img *raster.Raster) bool {
	sig := HUDFingerprint(img, t.Params)
	changed := !t.primed || sig != t.last
	t.last = sig
	t.primed = true
	return changed
}

// Last returns the most recent signature.
func (t *HUDTracker) Last() HUDSignature {
	return t.last
}

// Reset forgets the cached signature.
func (t *HUDTracker) Reset() {
	t.last = 0
	t.primed = false
}
