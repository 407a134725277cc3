package detect

import (
	"errors"
	"testing"

	"sweeper-vision/internal/board"
	"sweeper-vision/internal/raster"
	"sweeper-vision/internal/synth"
	"sweeper-vision/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateBoardSynthetic(t *testing.T) {
	b := synth.Classic(16, 16)
	b.Margin = 40
	frame := b.Render()

	rect, err := LocateBoard(frame, DefaultParams())
	require.NoError(t, err)

	want := b.BoardRect()
	assert.InDelta(t, want.X, rect.X, 4)
	assert.InDelta(t, want.Y, rect.Y, 4)
	assert.InDelta(t, want.Width, rect.Width, 6)
	assert.InDelta(t, want.Height, rect.Height, 6)

	assert.True(t, frame.Bounds().Contains(rect))
	assert.GreaterOrEqual(t, rect.Aspect(), 0.4)
	assert.LessOrEqual(t, rect.Aspect(), 2.5)
}

func TestLocateBoardBlankFrame(t *testing.T) {
	frame := raster.New(200, 200, 3)
	_, err := LocateBoard(frame, DefaultParams())
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = LocateBoard(nil, DefaultParams())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRefineGridStripsHUD(t *testing.T) {
	b := synth.Classic(16, 16)
	region := b.Render()

	rect, err := RefineGrid(region, DefaultParams())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, rect.Y, 28)
	assert.LessOrEqual(t, rect.Y, 32)
	assert.InDelta(t, 320, rect.Height, 40)
	assert.InDelta(t, 320, rect.Width, 6)
	assert.True(t, region.Bounds().Contains(rect))
}

func TestHUDBottomFindsDigits(t *testing.T) {
	b := synth.Classic(16, 16)
	y, ok := HUDBottom(b.Render(), DefaultParams())
	require.True(t, ok)
	assert.Less(t, y, b.HUDHeight)
	assert.Greater(t, y, b.HUDHeight/2)
}

func TestRefineGridFallbackWithoutHUDColour(t *testing.T) {
	b := synth.Classic(16, 16)
	b.HUDHeight = 0
	b.Margin = 12
	region := b.Render()

	_, ok := HUDBottom(region, DefaultParams())
	require.False(t, ok)

	rect, err := RefineGrid(region, DefaultParams())
	require.NoError(t, err)

	grid := b.GridRect()
	assert.InDelta(t, grid.Y, rect.Y, 5)
	assert.InDelta(t, grid.Height, rect.Height, 10)
}

func TestRefineGridEmpty(t *testing.T) {
	_, err := RefineGrid(raster.New(0, 0, 3), DefaultParams())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEstimatePeriodSpikes(t *testing.T) {
	proj := make([]float64, 240)
	for i := 0; i < len(proj); i += 24 {
		proj[i] = 10
	}

	p := DefaultParams()
	period := EstimatePeriod(proj, p)
	assert.InDelta(t, 24, period, 1)
	assert.Equal(t, 10, CountCells(proj, period))
}

func TestEstimatePeriodDegenerate(t *testing.T) {
	p := DefaultParams()
	assert.Zero(t, EstimatePeriod(make([]float64, 200), p))

	flat := make([]float64, 200)
	for i := range flat {
		flat[i] = 3
	}
	assert.Zero(t, EstimatePeriod(flat, p))

	assert.Zero(t, EstimatePeriod(make([]float64, 8), p))
}

func TestCountCellsFloor(t *testing.T) {
	assert.Equal(t, 1, CountCells(make([]float64, 50), 10))
	assert.Equal(t, 1, CountCells(nil, 10))
}

func TestEstimateLayoutSyntheticGrid(t *testing.T) {
	b := synth.Classic(16, 16)
	b.HUDHeight = 0
	grid := b.Render()

	p := DefaultParams()
	first, err := EstimateLayout(grid, p)
	require.NoError(t, err)

	assert.Equal(t, 16, first.Rows)
	assert.Equal(t, 16, first.Cols)
	assert.Equal(t, 20, first.PeriodX)
	assert.Equal(t, 20, first.PeriodY)
	assert.True(t, grid.Bounds().Contains(first.Rect))

	second, err := EstimateLayout(grid, p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEstimateLayoutGridBelowGap(t *testing.T) {
	b := synth.Classic(16, 16)
	b.HUDHeight = 0
	b.GridGap = 12

	layout, err := EstimateLayout(b.Render(), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 20, layout.PeriodY)
	assert.InDelta(t, b.GridGap%layout.PeriodY, layout.Rect.Y%layout.PeriodY, 2)
	assert.Equal(t, 16, layout.Rows)
	assert.Equal(t, 16, layout.Cols)
}

func TestAlignOriginStaysOnBoundary(t *testing.T) {
	const offset, period = 5, 20
	spikes := func(phase int) []float64 {
		proj := make([]float64, 320)
		for i := range proj {
			if (i+offset)%period == phase {
				proj[i] = 10
			}
		}
		return proj
	}

	assert.Equal(t, 12, alignOrigin(spikes(12), offset, period))
	assert.Equal(t, 3, alignOrigin(spikes(3), offset, period))
	assert.Equal(t, 0, alignOrigin(spikes(0), offset, period))
	assert.Equal(t, 0, alignOrigin(spikes(18), offset, period))
	assert.Zero(t, alignOrigin(make([]float64, 10), offset, period))
}

func TestEstimateLayoutNonSquare(t *testing.T) {
	b := synth.Classic(9, 12)
	b.HUDHeight = 0
	layout, err := EstimateLayout(b.Render(), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 9, layout.Rows)
	assert.Equal(t, 12, layout.Cols)
}

func TestEstimateLayoutFlatRegion(t *testing.T) {
	_, err := EstimateLayout(raster.New(200, 200, 3), DefaultParams())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFullChain(t *testing.T) {
	b := synth.Classic(16, 16)
	b.Margin = 30
	frame := b.Render()
	p := DefaultParams()

	boardRect, err := LocateBoard(frame, p)
	require.NoError(t, err)

	boardRect = PadRegion(boardRect, frame.Width, frame.Height, p)
	region := frame.Crop(boardRect)
	gridRect, err := RefineGrid(region, p)
	require.NoError(t, err)

	layout, err := EstimateLayout(region.Crop(gridRect), p)
	require.NoError(t, err)
	assert.Equal(t, 16, layout.Rows)
	assert.Equal(t, 16, layout.Cols)

	abs := layout.Rect.Offset(gridRect.X, gridRect.Y).Offset(boardRect.X, boardRect.Y)
	want := b.GridRect()
	assert.InDelta(t, want.X, abs.X, 3)
	assert.InDelta(t, want.Y, abs.Y, 3)
}

func TestFullChainGridBelowGap(t *testing.T) {
	b := synth.Classic(16, 16)
	b.Margin = 30
	b.GridGap = 12
	frame := b.Render()
	p := DefaultParams()

	boardRect, err := LocateBoard(frame, p)
	require.NoError(t, err)

	boardRect = PadRegion(boardRect, frame.Width, frame.Height, p)
	region := frame.Crop(boardRect)
	gridRect, err := RefineGrid(region, p)
	require.NoError(t, err)

	layout, err := EstimateLayout(region.Crop(gridRect), p)
	require.NoError(t, err)
	assert.Equal(t, 16, layout.Cols)

	abs := layout.Rect.Offset(gridRect.X, gridRect.Y).Offset(boardRect.X, boardRect.Y)
	want := b.GridRect()
	assert.InDelta(t, want.X, abs.X, 2)
	assert.InDelta(t, want.Y, abs.Y, 2)
}

func TestHUDTrackerHasChanged(t *testing.T) {
	b := synth.Classic(16, 16)
	frame := b.Render()
	same := frame.Clone()

	tr := NewHUDTracker(DefaultParams())
	assert.True(t, tr.HasChanged(frame))
	assert.False(t, tr.HasChanged(same))

	// The counter sits outside the timer area.
	b.Counter = 12
	assert.False(t, tr.HasChanged(b.Render()))

	b.Timer = 888
	assert.True(t, tr.HasChanged(b.Render()))

	tr.Reset()
	assert.True(t, tr.HasChanged(b.Render()))
}

func TestHUDBottomIgnoresWarmCellsBelowHUD(t *testing.T) {
	b := synth.Classic(16, 16)
	b.Cells = make([]board.CellValue, 16*16)
	for i := range b.Cells {
		b.Cells[i] = board.Unopened
	}
	for c := 0; c < 16; c++ {
		b.Cells[c] = board.Flag
	}
	y, ok := HUDBottom(b.Render(), DefaultParams())
	require.True(t, ok)
	assert.Less(t, y, b.HUDHeight)
}

func TestPadRegionClips(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, geometry.NewRectInt(8, 8, 24, 24), PadRegion(geometry.NewRectInt(10, 10, 20, 20), 100, 100, p))
	assert.Equal(t, geometry.NewRectInt(0, 0, 22, 22), PadRegion(geometry.NewRectInt(0, 0, 20, 20), 100, 100, p))
}

func TestHUDFingerprintEmpty(t *testing.T) {
	assert.Zero(t, HUDFingerprint(nil, DefaultParams()))
}

func TestWithHUDTopPercentClamps(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 10, p.WithHUDTopPercent(2).HUDTopPercent)
	assert.Equal(t, 70, p.WithHUDTopPercent(95).HUDTopPercent)
	assert.Equal(t, 35, p.HUDTopPercent)
}

func TestTimerRegion(t *testing.T) {
	r := TimerRegion(320, 350, DefaultParams())
	assert.Equal(t, geometry.NewRectInt(176, 0, 144, 122), r)
}
