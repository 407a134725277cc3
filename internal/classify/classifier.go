package classify

import (
	"image"

	"sweeper-vision/internal/board"
	"sweeper-vision/internal/raster"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Classifier maps one cell image to a value. Implementations never fail;
// anything unrecognisable is Unopened.
type Classifier interface {
	Classify(cell *raster.Raster) board.CellValue
}

// DefaultMinScore is the lowest normalised correlation accepted as a match.
const DefaultMinScore = 0.60

// New returns the standard classifier: template matching against bank with
// the colour heuristic as fallback.
func New(bank *TemplateBank) Classifier {
	return &TemplateMatcher{Bank: bank, MinScore: DefaultMinScore, Fallback: ColorHeuristic{}}
}

// TemplateMatcher classifies digits by normalised cross-correlation.
type TemplateMatcher struct {
	Bank     *TemplateBank
	MinScore float64
	Fallback Classifier
}

// Match returns the best matching digit and its score, or 0 when the bank
// is empty or the cell is unusable.
func (m *TemplateMatcher) Match(cell *raster.Raster) (digit int, score float64) {
	if cell.Empty() || m.Bank.Empty() {
		return 0, 0
	}
	inner := cell.Crop(cell.Bounds().Inset(min(cell.Width, cell.Height)/12, min(cell.Width, cell.Height)/12))
	if inner.Empty() {
		inner = cell
	}

	src, err := inner.Mat()
	if err != nil {
		return 0, 0
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	w, h := m.Bank.Size()
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(gray, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	best, bestScore := 0, -1.0
	for _, d := range m.Bank.Digits() {
		tm, err := m.Bank.Get(d).Mat()
		if err != nil {
			continue
		}
		gocv.MatchTemplate(resized, tm, &result, gocv.TmCcoeffNormed, mask)
		tm.Close()

		_, maxVal, _, _ := gocv.MinMaxLoc(result)
		if s := float64(maxVal); s > bestScore {
			best, bestScore = d, s
		}
	}
	return best, bestScore
}

// Classify returns the matched digit when its score reaches MinScore and
// defers to Fallback otherwise.
func (m *TemplateMatcher) Classify(cell *raster.Raster) board.CellValue {
	if d, score := m.Match(cell); d > 0 && score >= m.MinScore {
		return board.Number(d)
	}
	if m.Fallback != nil {
		return m.Fallback.Classify(cell)
	}
	return board.Unopened
}

// ColorHeuristic is the weak fallback classifier. It recognises flat
// revealed cells as 0 and the blue, green and red glyphs as 1, 2 and 3.
// Higher digits, flags and mines are not distinguished.
type ColorHeuristic struct{}

const (
	flatVariance     = 15.0
	unopenedLow      = 110.0 // brightness band of an unopened cell's cover
	unopenedHigh     = 200.0
	dominantSpread   = 40
	dominantMargin   = 20
	dominantFraction = 0.06
)

func (ColorHeuristic) Classify(cell *raster.Raster) board.CellValue {
	if cell.Empty() {
		return board.Unopened
	}
	m := min(cell.Width, cell.Height) / 16
	inner := cell.Crop(cell.Bounds().Inset(m, m))
	if inner.Empty() {
		inner = cell
	}

	n := inner.Width * inner.Height
	gray := make([]float64, 0, n)
	var blue, green, red int
	for y := 0; y < inner.Height; y++ {
		for x := 0; x < inner.Width; x++ {
			b, g, r := inner.BGRAt(x, y)
			gray = append(gray, 0.114*float64(b)+0.587*float64(g)+0.299*float64(r))

			bi, gi, ri := int(b), int(g), int(r)
			if max(bi, gi, ri)-min(bi, gi, ri) < dominantSpread {
				continue
			}
			switch {
			case bi >= gi+dominantMargin && bi >= ri+dominantMargin:
				blue++
			case gi >= bi+dominantMargin && gi >= ri+dominantMargin:
				green++
			case ri >= bi+dominantMargin && ri >= gi+dominantMargin:
				red++
			}
		}
	}

	mean, variance := stat.MeanVariance(gray, nil)
	if variance < flatVariance && (mean < unopenedLow || mean > unopenedHigh) {
		return board.Number(0)
	}

	limit := dominantFraction * float64(n)
	switch {
	case float64(blue) > limit:
		return board.Number(1)
	case float64(green) > limit:
		return board.Number(2)
	case float64(red) > limit:
		return board.Number(3)
	}
	return board.Unopened
}
