// Package render turns recognised game states into images and log output.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"sweeper-vision/internal/board"
	"sweeper-vision/pkg/colorutil"
)

// headerHeight is the text band above the drawn grid.
const headerHeight = 18

// BoardImage draws s as a grid of cell x cell squares below a one-line
// summary. Suggested safe cells get a green frame, suggested mines a
// magenta one.
func BoardImage(s *board.GameState, cell int) *image.RGBA {
	if cell < 10 {
		cell = 10
	}
	if s == nil {
		s = board.NewGameState(1, 1, 0)
	}
	w, h := s.Cols*cell+1, s.Rows*cell+1+headerHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorutil.Black), image.Point{}, draw.Src)

	DrawText(img, 2, 13, Summary(s), colorutil.White)

	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			x, y := c*cell+1, r*cell+1+headerHeight
			drawCell(img, image.Rect(x, y, x+cell-1, y+cell-1), s.At(r, c))
		}
	}

	for _, co := range s.SafeCells {
		outline(img, cellBounds(co, cell), colorutil.Green)
	}
	for _, co := range s.MineCells {
		outline(img, cellBounds(co, cell), colorutil.Magenta)
	}
	return img
}

// Summary is the one-line status shown above the grid.
func Summary(s *board.GameState) string {
	return fmt.Sprintf("%dx%d mines %d left %d explored %.0f%%",
		s.Rows, s.Cols, s.MineCount, s.RemainingMines, s.ExploredPercent)
}

func cellBounds(co board.Coord, cell int) image.Rectangle {
	x, y := co.Col*cell, co.Row*cell+headerHeight
	return image.Rect(x, y, x+cell+1, y+cell+1)
}

func drawCell(img draw.Image, r image.Rectangle, v board.CellValue) {
	switch {
	case v == board.Unopened:
		fill(img, r, colorutil.Gray)
	case v == board.Flag:
		fill(img, r, colorutil.Gray)
		DrawGlyph(img, r, 'F', colorutil.Red)
	case v == board.Mine:
		fill(img, r, colorutil.Red)
		DrawGlyph(img, r, '*', colorutil.Black)
	case v.IsNumber():
		fill(img, r, colorutil.Light)
		if n := int(v); n > 0 {
			DrawGlyph(img, r, rune('0'+n), colorutil.NumberColor(n))
		}
	}
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func outline(img draw.Image, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+2),
		image.Rect(r.Min.X, r.Max.Y-2, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+2, r.Max.Y),
		image.Rect(r.Max.X-2, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(img, edge.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}
