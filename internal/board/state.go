package board

import (
	"fmt"
	"strings"
)

// DefaultMineCount is the mine total of the classic 16x16 board.
const DefaultMineCount = 40

// GameState is the recognised board plus the values derived from it.
// Cells is row-major with exactly Rows*Cols entries.
type GameState struct {
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	MineCount int         `json:"mine_count"`
	Cells     []CellValue `json:"cells"`

	RemainingMines  int     `json:"remaining_mines"`
	ExploredPercent float64 `json:"explored_percent"`
	SafeCells       []Coord `json:"safe_cells"`
	MineCells       []Coord `json:"mine_cells"`
}

// NewGameState returns a rows x cols state with every cell unopened.
// Dimensions below one are raised to one.
func NewGameState(rows, cols, mineCount int) *GameState {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	s := &GameState{
		Rows:      rows,
		Cols:      cols,
		MineCount: mineCount,
		Cells:     make([]CellValue, rows*cols),
	}
	for i := range s.Cells {
		s.Cells[i] = Unopened
	}
	s.Recompute()
	return s
}

// InBounds reports whether (row, col) addresses a cell.
func (s *GameState) InBounds(row, col int) bool {
	return row >= 0 && row < s.Rows && col >= 0 && col < s.Cols
}

// At returns the value at (row, col); out-of-range coordinates read as Unopened.
func (s *GameState) At(row, col int) CellValue {
	if !s.InBounds(row, col) {
		return Unopened
	}
	return s.Cells[row*s.Cols+col]
}

// Set stores v at (row, col). Invalid values and coordinates are ignored.
func (s *GameState) Set(row, col int, v CellValue) {
	if !s.InBounds(row, col) || !v.Valid() {
		return
	}
	s.Cells[row*s.Cols+col] = v
}

// SameShape reports whether both states have identical dimensions.
func (s *GameState) SameShape(other *GameState) bool {
	return other != nil && s.Rows == other.Rows && s.Cols == other.Cols
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Cells = append([]CellValue(nil), s.Cells...)
	out.SafeCells = append([]Coord(nil), s.SafeCells...)
	out.MineCells = append([]Coord(nil), s.MineCells...)
	return &out
}

// Recompute refreshes every derived field from Cells and MineCount.
func (s *GameState) Recompute() {
	flags, known := 0, 0
	for _, v := range s.Cells {
		if v == Flag {
			flags++
		}
		if v.Known() {
			known++
		}
	}
	s.RemainingMines = s.MineCount - flags
	if len(s.Cells) > 0 {
		s.ExploredPercent = 100 * float64(known) / float64(len(s.Cells))
	} else {
		s.ExploredPercent = 0
	}
	s.SafeCells = SuggestSafeMoves(s)
	s.MineCells = SuggestMines(s)
}

// String renders the grid one row per line.
func (s *GameState) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d mines=%d remaining=%d explored=%.1f%%\n",
		s.Rows, s.Cols, s.MineCount, s.RemainingMines, s.ExploredPercent)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(s.At(r, c).String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
