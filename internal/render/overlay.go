package render

import (
	"fmt"
	"image"
	"log"
	"sync"

	"sweeper-vision/internal/app"
	"sweeper-vision/internal/board"
	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/colorutil"

	"gocv.io/x/gocv"
)

// Overlay draws the calibration and recognised values onto a copy of
// frame: board rectangle in yellow, grid in cyan, suggested safe cells in
// green and suggested mines in magenta.
func Overlay(frame *raster.Raster, cal app.Calibration, s *board.GameState) (gocv.Mat, error) {
	dst, err := frame.Mat()
	if err != nil {
		return gocv.NewMat(), err
	}

	gocv.Rectangle(&dst, cal.Board.ToImageRect(), colorutil.Yellow, 2)
	gocv.Rectangle(&dst, cal.Grid.ToImageRect(), colorutil.Cyan, 1)
	if s == nil {
		return dst, nil
	}

	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			v := s.At(r, c)
			if v == board.Unopened || v == board.Number(0) {
				continue
			}
			rect := cal.CellRect(board.Coord{Row: r, Col: c}).ToImageRect()
			label := v.String()
			pos := image.Pt(rect.Min.X+2, rect.Max.Y-3)
			gocv.PutText(&dst, label, pos, gocv.FontHersheyPlain, 1.0, colorutil.Magenta, 1)
		}
	}
	for _, co := range s.SafeCells {
		gocv.Rectangle(&dst, cal.CellRect(co).ToImageRect(), colorutil.Green, 2)
	}
	for _, co := range s.MineCells {
		gocv.Rectangle(&dst, cal.CellRect(co).ToImageRect(), colorutil.Magenta, 2)
	}
	return dst, nil
}

// WriteOverlay renders the overlay for res and writes it to path; the
// format follows the file extension.
func WriteOverlay(path string, res *app.Result) error {
	if res == nil || res.Frame.Empty() {
		return fmt.Errorf("overlay: no frame")
	}
	m, err := Overlay(res.Frame, res.Calibration, res.State)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	defer m.Close()
	if !gocv.IMWrite(path, m) {
		return fmt.Errorf("overlay: failed to write %s", path)
	}
	return nil
}

// OverlayWriter keeps Path updated with the overlay of the latest result
// that changed the grid.
type OverlayWriter struct {
	Path string

	mu   sync.Mutex
	last string
}

func (w *OverlayWriter) Render(res *app.Result) {
	if res == nil || res.State == nil {
		return
	}
	grid := res.State.String()

	w.mu.Lock()
	defer w.mu.Unlock()
	if grid == w.last && !res.Recalibrated {
		return
	}
	if err := WriteOverlay(w.Path, res); err != nil {
		log.Printf("Overlay: %v", err)
		return
	}
	w.last = grid
}
