package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sweeper-vision/internal/board"
	"sweeper-vision/internal/capture"
	"sweeper-vision/internal/detect"
	"sweeper-vision/internal/raster"
	"sweeper-vision/internal/synth"
	"sweeper-vision/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternClassifier returns fn(i) for the i-th cell of a pass, row-major.
type patternClassifier struct {
	cells int
	n     int
	fn    func(i int) board.CellValue
}

func (c *patternClassifier) Classify(*raster.Raster) board.CellValue {
	v := c.fn(c.n % c.cells)
	c.n++
	return v
}

func constClassifier(v board.CellValue) *patternClassifier {
	return &patternClassifier{cells: 1, fn: func(int) board.CellValue { return v }}
}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1000, 0)} }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func frameOf(img *raster.Raster, seq uint64) capture.Frame {
	return capture.Frame{Image: img, Seq: seq}
}

func syntheticFrame() (synth.Board, *raster.Raster) {
	b := synth.Classic(16, 16)
	b.Margin = 30
	return b, b.Render()
}

func newTestAnalyzer(clock *fakeClock) *Analyzer {
	a := NewAnalyzer(detect.DefaultParams(), constClassifier(board.Unopened), board.PolicySticky, nil, nil)
	a.now = clock.now
	return a
}

func TestAnalyzerCalibratesOnFirstPass(t *testing.T) {
	b, img := syntheticFrame()
	a := newTestAnalyzer(newFakeClock())

	res, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)
	assert.True(t, res.Recalibrated)
	assert.Equal(t, 16, res.State.Rows)
	assert.Equal(t, 16, res.State.Cols)
	assert.Equal(t, board.DefaultMineCount, res.State.MineCount)

	want := b.GridRect()
	assert.InDelta(t, want.X, res.Calibration.Grid.X, 3)
	assert.InDelta(t, want.Y, res.Calibration.Grid.Y, 3)
	assert.Equal(t, img.Width, res.Calibration.FrameWidth)

	snap := a.status.Snapshot()
	assert.True(t, snap.Calibrated)
	assert.Equal(t, uint64(1), snap.Calibrations)
	assert.Equal(t, uint64(1), snap.Passes)
}

func TestAnalyzerSkipsProcessedFrame(t *testing.T) {
	_, img := syntheticFrame()
	a := newTestAnalyzer(newFakeClock())

	_, err := a.Pass(frameOf(img, 7))
	require.NoError(t, err)
	_, err = a.Pass(frameOf(img, 7))
	assert.ErrorIs(t, err, ErrStale)
}

func TestAnalyzerEmptyFrame(t *testing.T) {
	a := newTestAnalyzer(newFakeClock())
	_, err := a.Pass(capture.Frame{Seq: 1})
	assert.True(t, errors.Is(err, detect.ErrNotFound))
}

func TestAnalyzerRecalibrationThrottle(t *testing.T) {
	_, img := syntheticFrame()
	clock := newFakeClock()
	a := newTestAnalyzer(clock)

	res, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)
	require.True(t, res.Recalibrated)

	clock.advance(100 * time.Millisecond)
	res, err = a.Pass(frameOf(img, 2))
	require.NoError(t, err)
	assert.False(t, res.Recalibrated, "unchanged HUD must not recalibrate")

	a.controls.RequestRecalibration()
	clock.advance(100 * time.Millisecond)
	res, err = a.Pass(frameOf(img, 3))
	require.NoError(t, err)
	assert.False(t, res.Recalibrated, "request inside the interval is deferred")

	clock.advance(DefaultRecalibrateInterval)
	res, err = a.Pass(frameOf(img, 4))
	require.NoError(t, err)
	assert.True(t, res.Recalibrated, "deferred request runs once the interval passed")
	assert.Equal(t, uint64(2), a.status.Snapshot().Calibrations)
}

func TestAnalyzerRecalibratesOnHUDChange(t *testing.T) {
	b, img := syntheticFrame()
	clock := newFakeClock()
	a := newTestAnalyzer(clock)

	_, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)

	b.Timer = 888
	clock.advance(time.Second)
	res, err := a.Pass(frameOf(b.Render(), 2))
	require.NoError(t, err)
	assert.True(t, res.Recalibrated)
}

func TestAnalyzerRecalibratesOnResize(t *testing.T) {
	b, img := syntheticFrame()
	clock := newFakeClock()
	a := newTestAnalyzer(clock)

	_, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)

	b.Margin = 50
	clock.advance(time.Second)
	res, err := a.Pass(frameOf(b.Render(), 2))
	require.NoError(t, err)
	assert.True(t, res.Recalibrated)
	assert.InDelta(t, b.GridRect().X, res.Calibration.Grid.X, 3)
}

func TestAnalyzerKeepsCalibrationOnNotFound(t *testing.T) {
	_, img := syntheticFrame()
	clock := newFakeClock()
	a := newTestAnalyzer(clock)

	first, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)

	blank := raster.New(img.Width, img.Height, img.Channels)
	clock.advance(time.Second)
	res, err := a.Pass(frameOf(blank, 2))
	require.NoError(t, err)
	assert.False(t, res.Recalibrated)
	assert.Equal(t, first.Calibration.Grid, res.Calibration.Grid)
	assert.NotEmpty(t, a.status.Snapshot().LastError)

	cal, ok := a.Calibration()
	assert.True(t, ok)
	assert.Equal(t, first.Calibration.Grid, cal.Grid)
}

func TestAnalyzerNotCalibrated(t *testing.T) {
	a := newTestAnalyzer(newFakeClock())
	_, err := a.Pass(frameOf(raster.New(300, 300, 3), 1))
	assert.True(t, errors.Is(err, detect.ErrNotFound))
	_, ok := a.Calibration()
	assert.False(t, ok)
}

func TestAnalyzerStabilisesAcrossPasses(t *testing.T) {
	_, img := syntheticFrame()
	clock := newFakeClock()
	a := newTestAnalyzer(clock)

	a.Classifier = constClassifier(board.Number(0))
	res, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)
	assert.Equal(t, board.Number(0), res.State.At(3, 3))
	assert.Equal(t, 100.0, res.State.ExploredPercent)

	// A frame that reads all cells as unopened must not regress them.
	a.Classifier = constClassifier(board.Unopened)
	res2, err := a.Pass(frameOf(img, 2))
	require.NoError(t, err)
	assert.Equal(t, board.Number(0), res2.State.At(3, 3))

	// Results are independent snapshots.
	res.State.Set(0, 0, board.Flag)
	assert.Equal(t, board.Number(0), res2.State.At(0, 0))
}

func TestAnalyzerResetForgetsCalibration(t *testing.T) {
	_, img := syntheticFrame()
	a := newTestAnalyzer(newFakeClock())
	_, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)

	a.Reset()
	_, ok := a.Calibration()
	assert.False(t, ok)
	assert.False(t, a.status.Snapshot().Calibrated)
	assert.Nil(t, a.Stabilizer.Baseline())
}

type fakeCounter struct{ n int }

func (c fakeCounter) ReadCounter(*raster.Raster, detect.Params) (int, error) { return c.n, nil }

func TestAnalyzerCounterSetsMineCount(t *testing.T) {
	_, img := syntheticFrame()
	a := newTestAnalyzer(newFakeClock())
	a.Counter = fakeCounter{n: 12}
	a.controls.SetCounterOCR(true)

	res, err := a.Pass(frameOf(img, 1))
	require.NoError(t, err)
	assert.Equal(t, 12, res.State.MineCount)
	assert.Equal(t, 12, res.State.RemainingMines)
}

func TestControlsClampHUDPercent(t *testing.T) {
	c := NewControls(5, false, false)
	assert.Equal(t, 10, c.HUDTopPercent())
	c.SetHUDTopPercent(90)
	assert.Equal(t, 70, c.HUDTopPercent())
	c.RequestRecalibration()
	assert.True(t, c.takeRecalibration())
	assert.False(t, c.takeRecalibration())
}

type recordingRenderer struct {
	mu      sync.Mutex
	results []*Result
}

func (r *recordingRenderer) Render(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

type recordingActuator struct {
	calls   atomic.Int32
	mu      sync.Mutex
	targets []geometry.PointInt
	origin  geometry.PointInt
}

func (a *recordingActuator) Actuate(targets []geometry.PointInt, origin geometry.PointInt) error {
	a.mu.Lock()
	a.targets = targets
	a.origin = origin
	a.mu.Unlock()
	a.calls.Add(1)
	return nil
}

func newTestRunner(t *testing.T, opens *atomic.Int32, r Renderer, act Actuator, c *patternClassifier) *Runner {
	t.Helper()
	_, img := syntheticFrame()
	a := NewAnalyzer(detect.DefaultParams(), c, board.PolicySticky, nil, nil)
	return NewRunner(a, Options{
		CaptureInterval:  5 * time.Millisecond,
		AnalysisInterval: 10 * time.Millisecond,
		OpenSource: func(context.Context) (capture.Source, error) {
			opens.Add(1)
			return capture.NewStaticSource(img), nil
		},
		Renderer: r,
		Actuator: act,
	})
}

func TestRunnerStartStop(t *testing.T) {
	var opens atomic.Int32
	rec := &recordingRenderer{}
	r := newTestRunner(t, &opens, rec, nil, constClassifier(board.Unopened))

	var updates atomic.Int32
	r.On(EventStateUpdated, func(data interface{}) {
		if _, ok := data.(*Result); ok {
			updates.Add(1)
		}
	})

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Start(context.Background()), "second start is a no-op")
	assert.True(t, r.Running())

	require.Eventually(t, func() bool { return rec.count() > 0 }, 5*time.Second, 10*time.Millisecond)
	r.Stop()
	assert.False(t, r.Running())

	n := rec.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, rec.count(), "no passes after stop")
	assert.Equal(t, int32(n), updates.Load())
	assert.Equal(t, int32(1), opens.Load())

	snap := r.Status()
	assert.Positive(t, snap.Frames)
	assert.True(t, snap.Calibrated)
	require.NoError(t, r.Close())
}

func TestRunnerRetarget(t *testing.T) {
	var opens atomic.Int32
	rec := &recordingRenderer{}
	r := newTestRunner(t, &opens, rec, nil, constClassifier(board.Unopened))

	retargeted := make(chan struct{}, 1)
	r.On(EventRetargeted, func(interface{}) { retargeted <- struct{}{} })

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return rec.count() > 0 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Retarget(context.Background()))
	<-retargeted
	assert.Equal(t, int32(2), opens.Load())
	assert.True(t, r.Running())

	before := rec.count()
	require.Eventually(t, func() bool { return rec.count() > before }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, r.Close())
	assert.False(t, r.Running())
}

func TestRunnerStartWithoutSource(t *testing.T) {
	a := NewAnalyzer(detect.DefaultParams(), constClassifier(board.Unopened), board.PolicySticky, nil, nil)
	r := NewRunner(a, Options{})
	assert.Error(t, r.Start(context.Background()))
	assert.False(t, r.Running())
}

func TestRunnerAutoMoveOnlyOnNewTarget(t *testing.T) {
	var opens atomic.Int32
	rec := &recordingRenderer{}
	act := &recordingActuator{}

	// A single revealed zero in the top-left corner.
	c := &patternClassifier{cells: 16 * 16, fn: func(i int) board.CellValue {
		if i == 0 {
			return board.Number(0)
		}
		return board.Unopened
	}}
	r := newTestRunner(t, &opens, rec, act, c)
	r.Controls().SetAutoMove(true)

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return rec.count() >= 3 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, r.Close())

	assert.Equal(t, int32(1), act.calls.Load())
	act.mu.Lock()
	defer act.mu.Unlock()
	assert.Len(t, act.targets, 3)
}
