package board

import (
	"testing"

	"sweeper-vision/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellValueCodes(t *testing.T) {
	assert.Equal(t, CellValue(-1), Mine)
	assert.Equal(t, CellValue(9), Unopened)
	assert.Equal(t, CellValue(10), Flag)
	assert.True(t, Number(8).Valid())
	assert.False(t, CellValue(11).Valid())
	assert.False(t, CellValue(-2).Valid())
	assert.False(t, Unopened.Known())
	assert.True(t, Flag.Known())
	assert.Equal(t, "3", Number(3).String())
}

func TestSuggestSafeMovesCenterZero(t *testing.T) {
	s := NewGameState(3, 3, 1)
	s.Set(1, 1, Number(0))

	moves := SuggestSafeMoves(s)
	require.Len(t, moves, 8)

	seen := make(map[Coord]int)
	for _, m := range moves {
		seen[m]++
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if r == 1 && c == 1 {
				assert.Zero(t, seen[Coord{r, c}])
				continue
			}
			assert.Equal(t, 1, seen[Coord{r, c}], "neighbour %d,%d", r, c)
		}
	}
}

func TestSuggestSafeMovesAllowsDuplicates(t *testing.T) {
	s := NewGameState(1, 3, 1)
	s.Set(0, 0, Number(0))
	s.Set(0, 2, Number(0))
	assert.Equal(t, []Coord{{0, 1}, {0, 1}}, SuggestSafeMoves(s))
}

func TestSuggestMines(t *testing.T) {
	// . 1 #
	// . 2 F
	s := NewGameState(2, 3, 2)
	s.Set(0, 0, Number(0))
	s.Set(1, 0, Number(0))
	s.Set(0, 1, Number(1))
	s.Set(1, 1, Number(2))
	s.Set(1, 2, Flag)

	// (0,1) sees unopened (0,2) and flag (1,2): 2 != 1, no suggestion.
	// (1,1) sees unopened (0,2) and flag (1,2): 2 == 2, (0,2) is a mine.
	assert.Equal(t, []Coord{{0, 2}}, SuggestMines(s))
}

func TestRecomputeDerivedValues(t *testing.T) {
	s := NewGameState(2, 2, 5)
	s.Set(0, 0, Flag)
	s.Set(0, 1, Number(1))
	s.Recompute()

	assert.Equal(t, 4, s.RemainingMines)
	assert.InDelta(t, 50.0, s.ExploredPercent, 1e-9)
}

func TestStabilizeRules(t *testing.T) {
	prev := NewGameState(1, 4, 10)
	prev.Cells = []CellValue{Number(2), Number(1), Unopened, Flag}

	next := NewGameState(1, 4, 10)
	next.Cells = []CellValue{Unopened, Number(3), Number(0), Flag}

	out := Stabilize(next, prev, PolicySticky)
	// regression to unopened, known change, newly revealed, unchanged
	assert.Equal(t, []CellValue{Number(2), Number(1), Number(0), Flag}, out.Cells)

	// inputs untouched
	assert.Equal(t, Unopened, next.Cells[0])
	assert.Equal(t, Unopened, prev.Cells[2])
}

func TestStabilizeInvariantsExhaustive(t *testing.T) {
	var values []CellValue
	for v := Mine; v <= Flag; v++ {
		values = append(values, v)
	}

	for _, pv := range values {
		for _, nv := range values {
			prev := NewGameState(1, 1, 0)
			prev.Cells[0] = pv
			next := NewGameState(1, 1, 0)
			next.Cells[0] = nv

			got := Stabilize(next, prev, PolicySticky).Cells[0]
			switch {
			case nv == pv:
				assert.Equal(t, nv, got)
			case nv == Unopened:
				assert.Equal(t, pv, got)
			case pv != Unopened:
				assert.Equal(t, pv, got)
			default:
				assert.Equal(t, nv, got)
			}
		}
	}
}

func TestStabilizeShapeChangePassesThrough(t *testing.T) {
	prev := NewGameState(2, 2, 1)
	prev.Set(0, 0, Number(1))
	next := NewGameState(3, 3, 1)

	out := Stabilize(next, prev, PolicySticky)
	assert.Equal(t, next.Cells, out.Cells)
}

func TestStabilizeNilNext(t *testing.T) {
	prev := NewGameState(2, 2, 1)
	prev.Set(0, 0, Number(1))

	out := Stabilize(nil, prev, PolicySticky)
	require.NotNil(t, out)
	assert.Equal(t, prev.Cells, out.Cells)
	assert.NotSame(t, prev, out)

	assert.Nil(t, Stabilize(nil, nil, PolicySticky))
}

func TestStabilizerBaseline(t *testing.T) {
	st := NewStabilizer(PolicySticky)
	first := NewGameState(1, 2, 1)
	first.Set(0, 0, Number(1))
	st.Apply(first)

	second := NewGameState(1, 2, 1)
	out := st.Apply(second)
	assert.Equal(t, Number(1), out.At(0, 0))

	out.Set(0, 0, Flag)
	assert.Equal(t, Number(1), st.Baseline().At(0, 0), "caller copy must not alias baseline")

	st.Reset()
	assert.Nil(t, st.Baseline())
}

func TestPassThroughPolicy(t *testing.T) {
	prev := NewGameState(1, 1, 0)
	prev.Cells[0] = Number(4)
	next := NewGameState(1, 1, 0)
	out := Stabilize(next, prev, PolicyPassThrough)
	assert.Equal(t, Unopened, out.Cells[0])
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("PassThrough")
	require.NoError(t, err)
	assert.Equal(t, PolicyPassThrough, p)

	_, err = ParsePolicy("bogus")
	assert.Error(t, err)
}

func TestCellCenters(t *testing.T) {
	grid := geometry.NewRectInt(100, 50, 320, 160)
	pts := CellCenters(grid, 8, 16, []Coord{{0, 0}, {7, 15}})
	assert.Equal(t, []geometry.PointInt{{X: 110, Y: 60}, {X: 410, Y: 200}}, pts)
	assert.Equal(t, geometry.NewRectInt(120, 70, 20, 20), CellRect(grid, 8, 16, Coord{1, 1}))
}
