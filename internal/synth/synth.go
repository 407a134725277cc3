// Package synth renders synthetic game screenshots: a HUD with seven-segment
// counters above a grid of square cells. They drive the calibration self
// test and the package tests.
package synth

import (
	"image"
	"image/color"
	"image/draw"

	"sweeper-vision/internal/board"
	"sweeper-vision/internal/raster"
	"sweeper-vision/internal/render"
	"sweeper-vision/pkg/colorutil"
	"sweeper-vision/pkg/geometry"
)

// Palette used by Render.
var (
	Background = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	Panel      = color.RGBA{R: 192, G: 192, B: 192, A: 255}
	GridLine   = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	Revealed   = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	LED        = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Board describes a synthetic screenshot.
type Board struct {
	Rows      int
	Cols      int
	Cell      int // cell side in pixels
	HUDHeight int
	GridGap   int // panel rows between the HUD and the first grid line
	Margin    int // background border around the board
	Counter   int
	Timer     int
	Cells     []board.CellValue // row-major; nil renders every cell unopened
}

// Classic returns a board with 20px cells and a 30px HUD at the image origin.
func Classic(rows, cols int) Board {
	return Board{Rows: rows, Cols: cols, Cell: 20, HUDHeight: 30, Counter: board.DefaultMineCount}
}

// Size returns the rendered image size.
func (b Board) Size() (width, height int) {
	return 2*b.Margin + b.Cols*b.Cell, 2*b.Margin + b.HUDHeight + b.GridGap + b.Rows*b.Cell
}

// BoardRect is the board (HUD plus grid) in image coordinates.
func (b Board) BoardRect() geometry.RectInt {
	return geometry.NewRectInt(b.Margin, b.Margin, b.Cols*b.Cell, b.HUDHeight+b.GridGap+b.Rows*b.Cell)
}

// GridRect is the cell grid in image coordinates.
func (b Board) GridRect() geometry.RectInt {
	return geometry.NewRectInt(b.Margin, b.Margin+b.HUDHeight+b.GridGap, b.Cols*b.Cell, b.Rows*b.Cell)
}

// At returns the value drawn at (row, col).
func (b Board) At(row, col int) board.CellValue {
	if b.Cells == nil {
		return board.Unopened
	}
	return b.Cells[row*b.Cols+col]
}

// Render draws the board.
func (b Board) Render() *raster.Raster {
	return raster.FromImage(b.Image())
}

// Image draws the board as a Go image.
func (b Board) Image() *image.RGBA {
	w, h := b.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), Background)

	br := b.BoardRect().ToImageRect()
	fill(img, br, Panel)
	if b.HUDHeight > 0 {
		b.drawHUD(img)
	}

	grid := b.GridRect()
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			cell := board.CellRect(grid, b.Rows, b.Cols, board.Coord{Row: r, Col: c})
			DrawCell(img, cell.ToImageRect(), b.At(r, c))
		}
	}

	gr := grid.ToImageRect()
	for c := 0; c <= b.Cols; c++ {
		x := min(gr.Min.X+c*b.Cell, gr.Max.X-1)
		fill(img, image.Rect(x, gr.Min.Y, x+1, gr.Max.Y), GridLine)
	}
	for r := 0; r <= b.Rows; r++ {
		y := min(gr.Min.Y+r*b.Cell, gr.Max.Y-1)
		fill(img, image.Rect(gr.Min.X, y, gr.Max.X, y+1), GridLine)
	}
	return img
}

func (b Board) drawHUD(img *image.RGBA) {
	top := b.Margin + 3
	height := b.HUDHeight - 6
	if height < 9 {
		return
	}
	boxW := 3*13 + 2*2 + 4
	left := image.Rect(b.Margin+6, top, b.Margin+6+boxW, top+height)
	right := image.Rect(b.Margin+b.Cols*b.Cell-6-boxW, top, b.Margin+b.Cols*b.Cell-6, top+height)

	fill(img, left, color.RGBA{A: 255})
	fill(img, right, color.RGBA{A: 255})
	DrawNumber(img, image.Pt(left.Min.X+2, top), height, b.Counter)
	DrawNumber(img, image.Pt(right.Min.X+2, top), height, b.Timer)
}

// DrawCell paints one cell's content inside r.
func DrawCell(img draw.Image, r image.Rectangle, v board.CellValue) {
	switch {
	case v == board.Unopened:
		fill(img, r, Panel)
	case v == board.Flag:
		fill(img, r, Panel)
		cx, cy := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
		s := r.Dx() / 4
		for dy := -s; dy <= s; dy++ {
			half := s - abs(dy)
			fill(img, image.Rect(cx-half, cy+dy, cx+half+1, cy+dy+1), LED)
		}
	case v == board.Mine:
		fill(img, r, Revealed)
		fill(img, r.Inset(r.Dx()/4), color.RGBA{A: 255})
	case v.IsNumber():
		fill(img, r, Revealed)
		if v > 0 {
			render.DrawGlyph(img, r, '0'+rune(v), colorutil.NumberColor(int(v)))
		}
	}
}

// segments lists the lit segments a..g of each decimal digit.
var segments = [10]string{
	"abcdef", "bc", "abdeg", "abcdg", "bcfg",
	"acdfg", "acdefg", "abc", "abcdefg", "abcdfg",
}

// DrawNumber draws n as three seven-segment digits of the given height,
// starting at origin. Negative values clamp to zero.
func DrawNumber(img draw.Image, origin image.Point, height, n int) {
	if n < 0 {
		n = 0
	}
	digits := []int{n / 100 % 10, n / 10 % 10, n % 10}
	for i, d := range digits {
		drawSevenSeg(img, image.Pt(origin.X+i*15, origin.Y), height, d)
	}
}

func drawSevenSeg(img draw.Image, o image.Point, height, digit int) {
	const w, t = 13, 3
	mid := o.Y + (height-t)/2
	bottom := o.Y + height - t
	rects := map[byte]image.Rectangle{
		'a': image.Rect(o.X, o.Y, o.X+w, o.Y+t),
		'b': image.Rect(o.X+w-t, o.Y, o.X+w, mid+t),
		'c': image.Rect(o.X+w-t, mid, o.X+w, bottom+t),
		'd': image.Rect(o.X, bottom, o.X+w, bottom+t),
		'e': image.Rect(o.X, mid, o.X+t, bottom+t),
		'f': image.Rect(o.X, o.Y, o.X+t, mid+t),
		'g': image.Rect(o.X, mid, o.X+w, mid+t),
	}
	for _, s := range []byte(segments[digit]) {
		fill(img, rects[s], LED)
	}
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
