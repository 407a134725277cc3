package detect

import (
	"fmt"
	"math"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	"gonum.org/v1/gonum/floats"
)

// Layout is the inferred cell grid of a refined region.
type Layout struct {
	Rows    int
	Cols    int
	PeriodX int
	PeriodY int
	Rect    geometry.RectInt // whole cells only, relative to the input region
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d cells of %dx%d at %v", l.Rows, l.Cols, l.PeriodX, l.PeriodY, l.Rect)
}

// EstimateLayout infers the row and column counts of a grid region from the
// periodicity of its edge projections.
func EstimateLayout(grid *raster.Raster, p Params) (Layout, error) {
	if grid.Empty() {
		return Layout{}, fmt.Errorf("layout: empty region: %w", ErrNotFound)
	}
	w, h := grid.Width, grid.Height

	edges, err := edgeMap(grid, false, p)
	if err != nil {
		return Layout{}, err
	}
	defer edges.Close()

	m := int(0.01*float64(min(w, h))) + 2
	if w-2*m < 2*p.MinPeriod || h-2*m < 2*p.MinPeriod {
		return Layout{}, fmt.Errorf("layout: region %dx%d too small: %w", w, h, ErrNotFound)
	}
	rowProj, colProj := projections(edges, m, m, w-m, h-m)

	px := EstimatePeriod(colProj, p)
	py := EstimatePeriod(rowProj, p)
	if px == 0 || py == 0 {
		return Layout{}, fmt.Errorf("layout: no periodic structure (%d, %d): %w", px, py, ErrNotFound)
	}

	x0 := alignOrigin(colProj, m, px)
	y0 := alignOrigin(rowProj, m, py)
	cols := min(CountCells(colProj, px), (w-x0)/px)
	rows := min(CountCells(rowProj, py), (h-y0)/py)
	if cols < 1 || rows < 1 {
		return Layout{}, fmt.Errorf("layout: aligned grid empty: %w", ErrNotFound)
	}

	return Layout{
		Rows:    rows,
		Cols:    cols,
		PeriodX: px,
		PeriodY: py,
		Rect:    geometry.RectInt{X: x0, Y: y0, Width: cols * px, Height: rows * py},
	}, nil
}

// EstimatePeriod returns the repeat distance of a projection by
// autocorrelation over lags [MinPeriod, min(MaxPeriod, n/2)]. Every multiple
// of the true period scores about as well as the period itself, so the
// shortest local peak within PeakTolerance of the best score wins. Zero
// means the profile has no usable structure.
func EstimatePeriod(proj []float64, p Params) int {
	n := len(proj)
	lo, hi := p.MinPeriod, min(p.MaxPeriod, n/2)
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		return 0
	}

	scores := make([]float64, hi+1)
	best, worst := 0.0, math.Inf(1)
	for k := lo; k <= hi; k++ {
		scores[k] = floats.Dot(proj[:n-k], proj[k:]) / float64(n-k)
		best = math.Max(best, scores[k])
		worst = math.Min(worst, scores[k])
	}
	if best <= 0 || best-worst <= 1e-3*best {
		return 0
	}

	cutoff := best * (1 - p.PeakTolerance)
	for k := lo; k <= hi; k++ {
		if scores[k] < cutoff {
			continue
		}
		if k > lo && scores[k-1] > scores[k] {
			continue
		}
		if k < hi && scores[k+1] > scores[k] {
			continue
		}
		return k
	}
	return 0
}

// CountCells counts period-sized windows of the projection that contain a
// non-zero sample. A trailing partial window counts when it spans at least
// a third of a period. The result is at least one.
func CountCells(proj []float64, period int) int {
	if period <= 0 {
		return 1
	}
	count := 0
	for start := 0; start < len(proj); start += period {
		end := min(start+period, len(proj))
		if end-start < period && (end-start)*3 < period {
			break
		}
		for _, v := range proj[start:end] {
			if v != 0 {
				count++
				break
			}
		}
	}
	return max(1, count)
}

// alignOrigin returns the grid phase in region coordinates: the centre of
// the first strong edge cluster, reduced to the first period boundary at or
// after the region origin. A boundary within a fifth of a period before the
// origin snaps to zero. offset converts projection indices to region
// coordinates.
func alignOrigin(proj []float64, offset, period int) int {
	peak := floats.Max(proj)
	if peak <= 0 {
		return 0
	}
	threshold := peak / 2

	var sum, weight float64
	last := -1
	for i, v := range proj {
		if v < threshold {
			if last >= 0 && i-last > 3 {
				break
			}
			continue
		}
		sum += float64(i) * v
		weight += v
		last = i
	}
	if weight == 0 {
		return 0
	}

	phase := int(math.Round(sum/weight)) + offset
	phase %= period
	if period-phase <= max(2, period/5) {
		return 0
	}
	return phase
}
