package detect

import (
	"fmt"
	"image"
	"log"

	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"

	"gocv.io/x/gocv"
)

// Candidate is a board rectangle that passed the shape filters.
type Candidate struct {
	Rect        geometry.RectInt
	EdgeDensity float64
	Score       float64
}

// LocateBoard finds the rectangular board inside a full frame. The result
// always lies inside the frame and has an aspect ratio within
// [MinAspect, MaxAspect].
func LocateBoard(frame *raster.Raster, p Params) (geometry.RectInt, error) {
	cands, err := BoardCandidates(frame, p)
	if err != nil {
		return geometry.RectInt{}, err
	}
	if len(cands) == 0 {
		return geometry.RectInt{}, fmt.Errorf("board boundary: %w", ErrNotFound)
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.Rect, nil
}

// BoardCandidates returns every convex quadrilateral contour that survives
// the size and aspect filters, with its score.
func BoardCandidates(frame *raster.Raster, p Params) ([]Candidate, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("board boundary: empty frame: %w", ErrNotFound)
	}

	edges, err := edgeMap(frame, true, p)
	if err != nil {
		return nil, err
	}
	defer edges.Close()

	closed := gocv.NewMat()
	defer closed.Close()
	k := odd(p.CloseKernel)
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()
	gocv.MorphologyEx(edges, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := frame.Bounds()
	frameArea := float64(bounds.Area())

	var cands []Candidate
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		epsilon := p.ApproxEpsilon * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) != 4 {
			continue
		}
		poly := make([]geometry.PointInt, len(pts))
		for j, pt := range pts {
			poly[j] = geometry.PointInt{X: pt.X, Y: pt.Y}
		}
		if !geometry.IsConvex(poly) {
			continue
		}

		rect := geometry.BoundingBox(poly).Intersect(bounds)
		if min(rect.Width, rect.Height) < p.MinSide {
			continue
		}
		if float64(rect.Area()) > p.MaxAreaFraction*frameArea {
			continue
		}
		if a := rect.Aspect(); a < p.MinAspect || a > p.MaxAspect {
			continue
		}

		density := edgeDensity(edges, rect.Inset(p.DensityInset, p.DensityInset))
		score := float64(rect.Area()) * (0.5 + min(1.5, density*4))
		cands = append(cands, Candidate{Rect: rect, EdgeDensity: density, Score: score})
	}

	log.Printf("LocateBoard: %d contours, %d candidates", contours.Size(), len(cands))
	return cands, nil
}

// edgeDensity is the fraction of edge pixels inside rect.
func edgeDensity(edges gocv.Mat, rect geometry.RectInt) float64 {
	rect = rect.ClipTo(edges.Cols(), edges.Rows())
	if rect.Empty() {
		return 0
	}
	region := edges.Region(rect.ToImageRect())
	defer region.Close()
	return float64(gocv.CountNonZero(region)) / float64(rect.Area())
}
