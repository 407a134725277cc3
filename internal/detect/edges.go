package detect

import (
	"fmt"
	"image"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	"gocv.io/x/gocv"
)

// grayMat converts a raster to a new single-channel Mat.
func grayMat(r *raster.Raster) (gocv.Mat, error) {
	src, err := r.Mat()
	if err != nil {
		return src, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

// edgeMap returns the Canny edge map of a raster. Blurring suppresses
// texture but also erases one-pixel grid lines, so it is optional.
func edgeMap(r *raster.Raster, blur bool, p Params) (gocv.Mat, error) {
	gray, err := grayMat(r)
	if err != nil {
		return gray, err
	}
	defer gray.Close()

	if blur {
		k := odd(p.BlurKernel)
		gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	}

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, p.CannyLow, p.CannyHigh)
	return edges, nil
}

// HUDMask isolates the HUD digit colour. Red hues sit at both ends of
// OpenCV's 0-180 hue circle, so two ranges are combined.
func HUDMask(r *raster.Raster, p Params) (gocv.Mat, error) {
	src, err := r.Mat()
	if err != nil {
		return src, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	low := gocv.NewMat()
	defer low.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(0, p.HUDSatMin, p.HUDValMin, 0),
		gocv.NewScalar(p.HUDHueLowMax, 255, 255, 0),
		&low)

	high := gocv.NewMat()
	defer high.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(p.HUDHueHighMin, p.HUDSatMin, p.HUDValMin, 0),
		gocv.NewScalar(180, 255, 255, 0),
		&high)

	mask := gocv.NewMat()
	gocv.BitwiseOr(low, high, &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)
	return mask, nil
}

// projections sums non-zero pixels of a single-channel Mat per row and per
// column, restricted to the rows [y0, y1) and columns [x0, x1).
func projections(m gocv.Mat, x0, y0, x1, y1 int) (rows, cols []float64) {
	w, h := m.Cols(), m.Rows()
	x0, y0 = max(0, x0), max(0, y0)
	x1, y1 = min(w, x1), min(h, y1)
	if x1 <= x0 || y1 <= y0 {
		return nil, nil
	}

	data := m.ToBytes()
	rows = make([]float64, y1-y0)
	cols = make([]float64, x1-x0)
	for y := y0; y < y1; y++ {
		line := data[y*w : (y+1)*w]
		for x := x0; x < x1; x++ {
			if line[x] != 0 {
				rows[y-y0]++
				cols[x-x0]++
			}
		}
	}
	return rows, cols
}

// nonZeroBounds returns the bounding rectangle of the non-zero pixels.
func nonZeroBounds(m gocv.Mat) (geometry.RectInt, bool) {
	rows, cols := projections(m, 0, 0, m.Cols(), m.Rows())
	y0, y1 := span(rows)
	x0, x1 := span(cols)
	if y0 < 0 || x0 < 0 {
		return geometry.RectInt{}, false
	}
	return geometry.RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// span returns the first non-zero index and one past the last, or -1.
func span(v []float64) (first, end int) {
	first = -1
	for i, x := range v {
		if x != 0 {
			if first < 0 {
				first = i
			}
			end = i + 1
		}
	}
	return first, end
}
