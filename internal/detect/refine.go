package detect

import (
	"fmt"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	"gocv.io/x/gocv"
)

// RefineGrid strips the HUD band from a board region and returns the cell
// grid area, relative to region.
//
// The HUD is found by its warm digit colour in the top HUDTopPercent of the
// region. When no HUD colour is present the grid is bounded by the first
// and last rows with dense horizontal edges instead.
func RefineGrid(region *raster.Raster, p Params) (geometry.RectInt, error) {
	if region.Empty() {
		return geometry.RectInt{}, fmt.Errorf("refine: empty region: %w", ErrNotFound)
	}
	w, h := region.Width, region.Height

	edges, err := edgeMap(region, false, p)
	if err != nil {
		return geometry.RectInt{}, err
	}
	defer edges.Close()

	var top, bottom int
	if hudBottom, ok := HUDBottom(region, p); ok {
		top = hudBottom + 1 + p.HUDGap
		bottom = h
	} else {
		rows, _ := projections(edges, 0, 0, w, h)
		top, bottom, ok = edgeRowSpan(rows, float64(w)*p.FallbackRowFraction)
		if !ok {
			return geometry.RectInt{}, fmt.Errorf("refine: no grid rows: %w", ErrNotFound)
		}
		top = max(0, top-p.EdgePad)
		bottom = min(h, bottom+p.EdgePad)
	}
	if bottom-top < h/6 || bottom <= top {
		return geometry.RectInt{}, fmt.Errorf("refine: grid span %d of %d rows: %w", bottom-top, h, ErrNotFound)
	}

	left, right := edgeColumnSpan(edges, top, bottom, p)
	return geometry.RectInt{X: left, Y: top, Width: right - left, Height: bottom - top}, nil
}

// HUDBottom returns the last row of the HUD: the end of the first run of
// rows, from the top of the band, whose warm-pixel count exceeds
// HUDRowFraction of the width. Gaps of up to HUDRunGap rows inside the run
// are tolerated; warm pixels further down belong to the grid (flags, red
// digits) and are ignored.
func HUDBottom(region *raster.Raster, p Params) (int, bool) {
	band := region.Crop(geometry.RectInt{Width: region.Width, Height: hudBandHeight(region.Height, p.HUDTopPercent)})
	if band.Empty() {
		return 0, false
	}

	mask, err := HUDMask(band, p)
	if err != nil {
		return 0, false
	}
	defer mask.Close()

	rows, _ := projections(mask, 0, 0, band.Width, band.Height)
	threshold := float64(band.Width) * p.HUDRowFraction
	last := -1
	for y, v := range rows {
		if v <= threshold {
			if last >= 0 && y-last > p.HUDRunGap {
				break
			}
			continue
		}
		last = y
	}
	return last, last >= 0
}

// PadRegion grows a located board rectangle by EdgePad on every side,
// clipped to the frame. The detected outline can sit a pixel inside the
// outermost grid line.
func PadRegion(rect geometry.RectInt, frameW, frameH int, p Params) geometry.RectInt {
	grown := geometry.RectInt{
		X:      rect.X - p.EdgePad,
		Y:      rect.Y - p.EdgePad,
		Width:  rect.Width + 2*p.EdgePad,
		Height: rect.Height + 2*p.EdgePad,
	}
	return grown.ClipTo(frameW, frameH)
}

// edgeRowSpan finds the first and last rows whose three-row edge sum
// exceeds threshold, skipping a thin strip at the top and bottom where
// window chrome lives. The returned bottom is exclusive.
func edgeRowSpan(rows []float64, threshold float64) (top, bottom int, ok bool) {
	n := len(rows)
	if n < 3 {
		return 0, 0, false
	}
	skip := max(1, n/50)
	smoothed := func(y int) float64 {
		return rows[y-1] + rows[y] + rows[y+1]
	}

	top = -1
	for y := skip; y < n-1; y++ {
		if smoothed(y) > threshold {
			top = y - 1
			break
		}
	}
	last := -1
	for y := n - 1 - skip; y >= 1; y-- {
		if smoothed(y) > threshold {
			last = y + 1
			break
		}
	}
	if top < 0 || last < 0 || last < top {
		return 0, 0, false
	}
	return top, last + 1, true
}

// edgeColumnSpan keeps the columns whose edge count within [top, bottom)
// exceeds ColumnEdgeFraction of the height. An implausibly narrow result
// falls back to the full width.
func edgeColumnSpan(edges gocv.Mat, top, bottom int, p Params) (left, right int) {
	w := edges.Cols()
	_, cols := projections(edges, 0, top, w, bottom)
	threshold := float64(bottom-top) * p.ColumnEdgeFraction

	first, last := -1, -1
	for x, v := range cols {
		if v > threshold {
			if first < 0 {
				first = x
			}
			last = x
		}
	}
	if first < 0 {
		return 0, w
	}
	left = max(0, first-p.EdgePad)
	right = min(w, last+1+p.EdgePad)
	if right-left < w/6 {
		return 0, w
	}
	return left, right
}
