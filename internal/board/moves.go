package board

import "sweeper-vision/pkg/geometry"

var neighbourOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// SuggestSafeMoves returns every unopened neighbour of every revealed zero.
// A cell bordering several zeros is listed once per zero.
func SuggestSafeMoves(s *GameState) []Coord {
	var moves []Coord
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			if s.At(r, c) != Number(0) {
				continue
			}
			for _, d := range neighbourOffsets {
				nr, nc := r+d[0], c+d[1]
				if s.InBounds(nr, nc) && s.At(nr, nc) == Unopened {
					moves = append(moves, Coord{Row: nr, Col: nc})
				}
			}
		}
	}
	return moves
}

// SuggestMines returns the unopened neighbours of every revealed count n
// whose unopened plus flagged neighbours number exactly n. Each coordinate
// appears once.
func SuggestMines(s *GameState) []Coord {
	var mines []Coord
	seen := make(map[Coord]bool)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			v := s.At(r, c)
			if !v.IsNumber() || v == 0 {
				continue
			}

			var unopened []Coord
			flagged := 0
			for _, d := range neighbourOffsets {
				nr, nc := r+d[0], c+d[1]
				if !s.InBounds(nr, nc) {
					continue
				}
				switch s.At(nr, nc) {
				case Unopened:
					unopened = append(unopened, Coord{Row: nr, Col: nc})
				case Flag:
					flagged++
				}
			}
			if len(unopened) == 0 || len(unopened)+flagged != int(v) {
				continue
			}
			for _, co := range unopened {
				if !seen[co] {
					seen[co] = true
					mines = append(mines, co)
				}
			}
		}
	}
	return mines
}

// CellCenter returns the pixel centre of a cell inside grid, which must be
// expressed in frame coordinates.
func CellCenter(grid geometry.RectInt, rows, cols int, co Coord) geometry.PointInt {
	if rows < 1 || cols < 1 {
		return grid.Center()
	}
	cw := float64(grid.Width) / float64(cols)
	ch := float64(grid.Height) / float64(rows)
	return geometry.PointInt{
		X: grid.X + int((float64(co.Col)+0.5)*cw),
		Y: grid.Y + int((float64(co.Row)+0.5)*ch),
	}
}

// CellCenters maps each coordinate to its pixel centre within grid.
func CellCenters(grid geometry.RectInt, rows, cols int, coords []Coord) []geometry.PointInt {
	out := make([]geometry.PointInt, 0, len(coords))
	for _, co := range coords {
		out = append(out, CellCenter(grid, rows, cols, co))
	}
	return out
}

// CellRect returns the pixel rectangle of a cell inside grid.
func CellRect(grid geometry.RectInt, rows, cols int, co Coord) geometry.RectInt {
	x0 := grid.X + co.Col*grid.Width/cols
	x1 := grid.X + (co.Col+1)*grid.Width/cols
	y0 := grid.Y + co.Row*grid.Height/rows
	y1 := grid.Y + (co.Row+1)*grid.Height/rows
	return geometry.RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
