package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"sweeper-vision/internal/board"
	"sweeper-vision/internal/capture"
	"sweeper-vision/internal/classify"
	"sweeper-vision/internal/detect"
	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/geometry"
)

// ErrStale reports a frame that was already analysed.
var ErrStale = errors.New("frame already processed")

// DefaultRecalibrateInterval is the minimum time between board detections.
const DefaultRecalibrateInterval = 600 * time.Millisecond

// CounterReader reads the remaining-mines counter from a board region.
type CounterReader interface {
	ReadCounter(region *raster.Raster, p detect.Params) (int, error)
}

// Calibration is the board geometry in frame coordinates.
type Calibration struct {
	Board       geometry.RectInt // board including HUD
	Grid        geometry.RectInt // whole cells only
	Layout      detect.Layout
	FrameWidth  int
	FrameHeight int
	At          time.Time
}

// CellRect returns the frame rectangle of one cell.
func (c Calibration) CellRect(co board.Coord) geometry.RectInt {
	return board.CellRect(c.Grid, c.Layout.Rows, c.Layout.Cols, co)
}

// Result is the outcome of one analysis pass. Its State is a private copy.
type Result struct {
	State        *board.GameState
	Calibration  Calibration
	Frame        *raster.Raster // the analysed frame
	Seq          uint64
	Origin       geometry.PointInt // screen position of the frame
	Recalibrated bool
}

// SafeTargets returns the frame-space centres of the suggested safe cells.
func (r *Result) SafeTargets() []geometry.PointInt {
	c := r.Calibration
	return board.CellCenters(c.Grid, c.Layout.Rows, c.Layout.Cols, r.State.SafeCells)
}

// Analyzer runs the recognition pipeline on one frame at a time. It is owned
// by a single goroutine.
type Analyzer struct {
	Params              detect.Params
	Classifier          classify.Classifier
	Stabilizer          *board.Stabilizer
	Counter             CounterReader // optional
	MineCount           int
	RecalibrateInterval time.Duration

	controls *Controls
	status   *Status
	hud      *detect.HUDTracker
	now      func() time.Time

	cal       *Calibration
	boardRect *geometry.RectInt
	lastRecal time.Time
	pending   bool
	lastSeq   uint64
	lastErr   string
}

// NewAnalyzer creates an analyzer. controls and status may be nil.
func NewAnalyzer(p detect.Params, c classify.Classifier, policy board.Policy, controls *Controls, status *Status) *Analyzer {
	if controls == nil {
		controls = NewControls(p.HUDTopPercent, false, false)
	}
	if status == nil {
		status = &Status{}
	}
	return &Analyzer{
		Params:              p,
		Classifier:          c,
		Stabilizer:          board.NewStabilizer(policy),
		MineCount:           board.DefaultMineCount,
		RecalibrateInterval: DefaultRecalibrateInterval,
		controls:            controls,
		status:              status,
		hud:                 detect.NewHUDTracker(p),
		now:                 time.Now,
	}
}

// Calibration returns the last good calibration.
func (a *Analyzer) Calibration() (Calibration, bool) {
	if a.cal == nil {
		return Calibration{}, false
	}
	return *a.cal, true
}

// Reset forgets calibration, HUD history and the stabiliser baseline.
func (a *Analyzer) Reset() {
	a.cal = nil
	a.boardRect = nil
	a.lastRecal = time.Time{}
	a.pending = false
	a.lastSeq = 0
	a.lastErr = ""
	a.hud.Reset()
	a.Stabilizer.Reset()
	a.status.calibrated.Store(false)
}

// Pass analyses frame. Board detection re-runs on the first pass, when the
// HUD timer changes, when the frame size changes or on request, but never
// more often than RecalibrateInterval. Classification and stabilisation run
// on every pass. A failed detection keeps the previous calibration.
func (a *Analyzer) Pass(frame capture.Frame) (*Result, error) {
	img := frame.Image
	if img.Empty() {
		return nil, fmt.Errorf("pass: empty frame: %w", detect.ErrNotFound)
	}
	if frame.Seq != 0 && frame.Seq == a.lastSeq {
		return nil, ErrStale
	}
	a.lastSeq = frame.Seq

	p := a.Params.WithHUDTopPercent(a.controls.HUDTopPercent())
	a.hud.Params = p

	hudRegion := img.Crop(a.regionRect(img, p))
	hudChanged := a.hud.HasChanged(hudRegion)
	sizeChanged := a.cal != nil && (a.cal.FrameWidth != img.Width || a.cal.FrameHeight != img.Height)
	if a.cal == nil || hudChanged || sizeChanged || a.controls.takeRecalibration() {
		a.pending = true
	}

	recalibrated := false
	if a.pending {
		now := a.now()
		if a.lastRecal.IsZero() || now.Sub(a.lastRecal) >= a.RecalibrateInterval {
			a.lastRecal = now
			a.pending = false
			err := a.calibrate(img, p)
			a.report(err)
			recalibrated = err == nil
			if recalibrated {
				// Fingerprint the HUD inside the new board rectangle.
				a.hud.HasChanged(img.Crop(a.regionRect(img, p)))
			}
		}
	}
	if a.cal == nil {
		return nil, fmt.Errorf("pass: not calibrated: %w", detect.ErrNotFound)
	}

	state := a.Stabilizer.Apply(a.classify(img))
	a.status.passes.Add(1)
	a.status.lastPass.Store(a.now().UnixNano())

	return &Result{
		State:        state,
		Calibration:  *a.cal,
		Frame:        img,
		Seq:          frame.Seq,
		Origin:       frame.Origin,
		Recalibrated: recalibrated,
	}, nil
}

// regionRect is the padded board rectangle, or the whole frame before the
// board was first located.
func (a *Analyzer) regionRect(img *raster.Raster, p detect.Params) geometry.RectInt {
	if a.boardRect == nil {
		return img.Bounds()
	}
	r := detect.PadRegion(*a.boardRect, img.Width, img.Height, p)
	if r.Empty() {
		return img.Bounds()
	}
	return r
}

func (a *Analyzer) calibrate(img *raster.Raster, p detect.Params) error {
	rect, err := detect.LocateBoard(img, p)
	switch {
	case err == nil:
		a.boardRect = &rect
	case a.boardRect == nil:
		// The board may fill the whole capture.
		rect = img.Bounds()
		a.boardRect = &rect
	}

	regionRect := a.regionRect(img, p)
	region := img.Crop(regionRect)
	gridRect, err := detect.RefineGrid(region, p)
	if err != nil {
		return err
	}
	layout, err := detect.EstimateLayout(region.Crop(gridRect), p)
	if err != nil {
		return err
	}

	grid := layout.Rect.Offset(gridRect.X+regionRect.X, gridRect.Y+regionRect.Y)
	prev := a.cal
	a.cal = &Calibration{
		Board:       *a.boardRect,
		Grid:        grid,
		Layout:      layout,
		FrameWidth:  img.Width,
		FrameHeight: img.Height,
		At:          a.now(),
	}
	a.status.calibrations.Add(1)
	a.status.calibrated.Store(true)

	if prev == nil || prev.Layout.Rows != layout.Rows || prev.Layout.Cols != layout.Cols || prev.Grid != grid {
		log.Printf("Calibrate: board %v grid %v (%v)", a.cal.Board, grid, layout)
	}

	if a.Counter != nil && a.controls.CounterOCR() {
		if n, err := a.Counter.ReadCounter(region, p); err == nil && n >= 0 {
			flags := 0
			if base := a.Stabilizer.Baseline(); base != nil {
				for _, v := range base.Cells {
					if v == board.Flag {
						flags++
					}
				}
			}
			a.MineCount = n + flags
		}
	}
	return nil
}

// classify crops and classifies every cell of the calibrated grid.
func (a *Analyzer) classify(img *raster.Raster) *board.GameState {
	rows, cols := a.cal.Layout.Rows, a.cal.Layout.Cols
	st := board.NewGameState(rows, cols, a.MineCount)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := img.Crop(a.cal.CellRect(board.Coord{Row: r, Col: c}))
			st.Set(r, c, a.Classifier.Classify(cell))
		}
	}
	st.Recompute()
	return st
}

// report logs detection failures once per distinct message.
func (a *Analyzer) report(err error) {
	a.status.setError(err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == a.lastErr {
		return
	}
	a.lastErr = msg
	if err != nil {
		log.Printf("Calibrate: %v (keeping last calibration)", err)
	}
}
