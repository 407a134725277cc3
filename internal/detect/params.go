// Package detect locates the board in a captured frame, separates the HUD
// from the cell grid and infers the grid layout from edge periodicity.
//
// Every stage is a function of its input raster and a Params value. A stage
// that cannot produce a confident result returns an error wrapping
// ErrNotFound; callers keep their last good value and retry later.
package detect

import "errors"

// ErrNotFound reports that a stage found nothing it trusts in this frame.
var ErrNotFound = errors.New("not found")

// Params holds tuning for all detection stages.
type Params struct {
	// Board boundary
	BlurKernel      int     // Gaussian kernel size before edge detection
	CannyLow        float32 // Canny hysteresis thresholds
	CannyHigh       float32
	CloseKernel     int     // morphological close kernel for edge gaps
	ApproxEpsilon   float64 // polygon tolerance as a fraction of perimeter
	MinSide         int     // shortest acceptable board side in pixels
	MaxAreaFraction float64 // reject candidates covering more of the frame
	MinAspect       float64 // width/height bounds
	MaxAspect       float64
	DensityInset    int // inset before measuring edge density

	// HUD band
	HUDTopPercent       int // share of the board height searched for the HUD, 10-70
	HUDHueLowMax        float64
	HUDHueHighMin       float64 // warm hues wrap around 180
	HUDSatMin           float64
	HUDValMin           float64
	HUDRowFraction      float64 // masked pixels per row, relative to width
	HUDGap              int     // rows skipped below the HUD edge
	HUDRunGap           int     // unlit rows tolerated inside the HUD digits
	EdgePad             int     // slack kept outside the outermost grid edges
	ColumnEdgeFraction  float64 // edge pixels per column, relative to height
	FallbackRowFraction float64

	// Layout
	MinPeriod     int
	MaxPeriod     int
	PeakTolerance float64 // relative slack when preferring the shortest peak lag

	// Fingerprint
	TimerFraction   float64 // rightmost share of the HUD band that is hashed
	SignatureWidth  int
	SignatureHeight int
}

// DefaultParams returns parameters tuned for classic flat-coloured boards
// with a red LED-style HUD.
func DefaultParams() Params {
	return Params{
		BlurKernel:      5,
		CannyLow:        50,
		CannyHigh:       150,
		CloseKernel:     5,
		ApproxEpsilon:   0.02,
		MinSide:         40,
		MaxAreaFraction: 0.98,
		MinAspect:       0.4,
		MaxAspect:       2.5,
		DensityInset:    2,

		HUDTopPercent:       35,
		HUDHueLowMax:        25,
		HUDHueHighMin:       160,
		HUDSatMin:           90,
		HUDValMin:           90,
		HUDRowFraction:      0.03,
		HUDGap:              2,
		HUDRunGap:           4,
		EdgePad:             2,
		ColumnEdgeFraction:  0.3,
		FallbackRowFraction: 0.5,

		MinPeriod:     5,
		MaxPeriod:     120,
		PeakTolerance: 0.02,

		TimerFraction:   0.45,
		SignatureWidth:  48,
		SignatureHeight: 16,
	}
}

// WithHUDTopPercent returns a copy of params with the HUD band height set,
// clamped to [10, 70].
func (p Params) WithHUDTopPercent(pct int) Params {
	p.HUDTopPercent = ClampHUDPercent(pct)
	return p
}

// WithHUDColor returns a copy of params with a custom HUD colour window.
// Hues at or below lowMax or at or above highMin are accepted.
func (p Params) WithHUDColor(lowMax, highMin, satMin, valMin float64) Params {
	p.HUDHueLowMax = lowMax
	p.HUDHueHighMin = highMin
	p.HUDSatMin = satMin
	p.HUDValMin = valMin
	return p
}

// ClampHUDPercent limits a HUD band percentage to [10, 70].
func ClampHUDPercent(pct int) int {
	if pct < 10 {
		return 10
	}
	if pct > 70 {
		return 70
	}
	return pct
}

func hudBandHeight(height, pct int) int {
	h := height * ClampHUDPercent(pct) / 100
	if h < 1 {
		h = 1
	}
	return h
}

func odd(k int) int {
	if k < 1 {
		return 1
	}
	if k%2 == 0 {
		return k + 1
	}
	return k
}
