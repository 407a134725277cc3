package render

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"sweeper-vision/internal/app"
	"sweeper-vision/internal/board"
	"sweeper-vision/internal/raster"
	"sweeper-vision/pkg/colorutil"
	"sweeper-vision/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *board.GameState {
	s := board.NewGameState(3, 4, 5)
	s.Set(1, 1, board.Number(0))
	s.Set(0, 3, board.Flag)
	s.Set(2, 3, board.Number(2))
	s.Recompute()
	return s
}

func TestBoardImageSize(t *testing.T) {
	img := BoardImage(sampleState(), 20)
	assert.Equal(t, image.Rect(0, 0, 4*20+1, 3*20+1+headerHeight), img.Bounds())

	small := BoardImage(sampleState(), 2)
	assert.Equal(t, 4*10+1, small.Bounds().Dx())
}

func TestBoardImageMarksSafeCells(t *testing.T) {
	s := sampleState()
	require.NotEmpty(t, s.SafeCells)
	img := BoardImage(s, 20)

	co := s.SafeCells[0]
	r := cellBounds(co, 20)
	assert.Equal(t, colorutil.Green, img.RGBAAt(r.Min.X, r.Min.Y))

	// Revealed zero: light fill, no frame of its own.
	zero := cellBounds(board.Coord{Row: 1, Col: 1}, 20)
	assert.Equal(t, colorutil.Light, img.RGBAAt(zero.Min.X+10, zero.Min.Y+3))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "3x4 mines 5 left 4 explored 25%", Summary(sampleState()))
}

func TestBoardImageNilState(t *testing.T) {
	img := BoardImage(nil, 20)
	assert.False(t, img.Bounds().Empty())
}

func TestLogRendererIgnoresEmpty(t *testing.T) {
	l := &LogRenderer{}
	l.Render(nil)
	l.Render(&app.Result{State: sampleState()})
	assert.NotEmpty(t, l.last)
}

func TestWriteOverlay(t *testing.T) {
	frame := raster.New(200, 120, 3)
	res := &app.Result{
		State: sampleState(),
		Frame: frame,
		Calibration: app.Calibration{
			Board: geometry.NewRectInt(10, 10, 100, 90),
			Grid:  geometry.NewRectInt(20, 40, 80, 60),
		},
	}
	res.Calibration.Layout.Rows = 3
	res.Calibration.Layout.Cols = 4

	m, err := Overlay(frame, res.Calibration, res.State)
	require.NoError(t, err)
	assert.Equal(t, 200, m.Cols())
	assert.Equal(t, 120, m.Rows())
	m.Close()

	path := filepath.Join(t.TempDir(), "overlay.png")
	require.NoError(t, WriteOverlay(path, res))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, WriteOverlay(path, nil))
	assert.Error(t, WriteOverlay(path, &app.Result{State: sampleState()}))
}
