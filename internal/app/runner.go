package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"sweeper-vision/internal/capture"
	"sweeper-vision/pkg/geometry"

	"go.uber.org/multierr"
)

// Renderer receives every completed analysis result. It must not mutate it.
type Renderer interface {
	Render(res *Result)
}

// Actuator receives frame-space targets for suggested safe cells together
// with the screen origin of the frame.
type Actuator interface {
	Actuate(targets []geometry.PointInt, origin geometry.PointInt) error
}

// SourceFunc resolves the capture source. It is called on the first Start
// and again on every Retarget.
type SourceFunc func(ctx context.Context) (capture.Source, error)

// Options configures a Runner.
type Options struct {
	CaptureInterval  time.Duration
	AnalysisInterval time.Duration
	OpenSource       SourceFunc
	Renderer         Renderer // optional
	Actuator         Actuator // optional, used while auto-move is on
}

// DefaultOptions returns the standard 5 Hz capture and 2 Hz analysis rates.
func DefaultOptions() Options {
	return Options{
		CaptureInterval:  200 * time.Millisecond,
		AnalysisInterval: 500 * time.Millisecond,
	}
}

// Runner drives a capture worker and an analysis worker. The two share only
// the frame buffer; the analyzer belongs to the analysis worker.
type Runner struct {
	Events

	opts     Options
	analyzer *Analyzer
	buffer   capture.FrameBuffer

	mu      sync.Mutex // serialises Start, Stop, Retarget and Close
	source  capture.Source
	running atomic.Bool
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// analysis worker only
	lastTarget *geometry.PointInt
	lastGrab   string
}

// NewRunner creates a runner around analyzer.
func NewRunner(analyzer *Analyzer, opts Options) *Runner {
	def := DefaultOptions()
	if opts.CaptureInterval <= 0 {
		opts.CaptureInterval = def.CaptureInterval
	}
	if opts.AnalysisInterval <= 0 {
		opts.AnalysisInterval = def.AnalysisInterval
	}
	return &Runner{opts: opts, analyzer: analyzer}
}

// Controls returns the runtime-adjustable parameters.
func (r *Runner) Controls() *Controls { return r.analyzer.controls }

// Status returns a snapshot of the worker counters.
func (r *Runner) Status() StatusSnapshot { return r.analyzer.status.Snapshot() }

// Running reports whether the workers are active.
func (r *Runner) Running() bool { return r.running.Load() }

// Start opens the capture source if needed and launches both workers.
// Starting a running runner is a no-op.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running.Load() {
		return nil
	}
	if r.source == nil {
		if r.opts.OpenSource == nil {
			return errors.New("runner: no capture source")
		}
		src, err := r.opts.OpenSource(ctx)
		if err != nil {
			return fmt.Errorf("runner: open source: %w", err)
		}
		r.source = src
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.stopCh = make(chan struct{})
	r.running.Store(true)

	r.wg.Add(2)
	go r.captureLoop(ctx, r.source, r.stopCh)
	go r.analysisLoop(r.stopCh)
	return nil
}

// Stop clears the running flag and waits for both workers to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Runner) stopLocked() {
	if !r.running.Swap(false) {
		return
	}
	close(r.stopCh)
	r.cancel()
	r.wg.Wait()
}

// Retarget stops and joins the workers, drops the capture source, the
// buffered frame and all calibration state, then starts again on a freshly
// resolved source.
func (r *Runner) Retarget(ctx context.Context) error {
	r.mu.Lock()
	r.stopLocked()
	err := r.closeSourceLocked()
	r.buffer.Reset()
	r.analyzer.Reset()
	r.lastTarget = nil
	r.lastGrab = ""
	r.mu.Unlock()

	if err != nil {
		log.Printf("Runner: closing previous source: %v", err)
	}
	log.Printf("Runner: retargeting")
	if err := r.Start(ctx); err != nil {
		return err
	}
	r.Emit(EventRetargeted, nil)
	return nil
}

// Close stops the workers and releases the source and any closable
// renderer or actuator.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	err := r.closeSourceLocked()
	if c, ok := r.opts.Renderer.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	if c, ok := r.opts.Actuator.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	if c, ok := r.analyzer.Counter.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func (r *Runner) closeSourceLocked() error {
	if r.source == nil {
		return nil
	}
	err := r.source.Close()
	r.source = nil
	return err
}

func (r *Runner) captureLoop(ctx context.Context, src capture.Source, stopCh <-chan struct{}) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.opts.CaptureInterval)
	defer ticker.Stop()

	for r.running.Load() {
		r.grab(ctx, src)
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}
	}
}

// grab publishes one frame. Failures mean no frame this cycle.
func (r *Runner) grab(ctx context.Context, src capture.Source) {
	img, err := src.Grab(ctx)
	if err != nil {
		if ctx.Err() == nil && err.Error() != r.lastGrab {
			log.Printf("Capture: %v", err)
		}
		r.lastGrab = err.Error()
		return
	}
	r.lastGrab = ""
	if img.Empty() {
		return
	}
	r.buffer.Publish(img, src.Origin())
	r.analyzer.status.frames.Add(1)
}

func (r *Runner) analysisLoop(stopCh <-chan struct{}) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.opts.AnalysisInterval)
	defer ticker.Stop()

	for r.running.Load() {
		r.analyze()
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}
	}
}

// analyze runs one pass over the newest frame and hands the result out.
func (r *Runner) analyze() {
	frame, ok := r.buffer.Latest()
	if !ok {
		return
	}
	res, err := r.analyzer.Pass(frame)
	if errors.Is(err, ErrStale) {
		return
	}
	if err != nil {
		r.Emit(EventNotFound, err)
		return
	}

	if res.Recalibrated {
		r.Emit(EventCalibrated, res.Calibration)
	}
	if r.opts.Renderer != nil {
		r.opts.Renderer.Render(res)
	}
	r.Emit(EventStateUpdated, res)

	if r.opts.Actuator != nil && r.analyzer.controls.AutoMove() {
		r.actuate(res)
	}
}

// actuate forwards safe targets when the first one differs from the last
// target sent, so an idle board does not keep moving the cursor.
func (r *Runner) actuate(res *Result) {
	targets := res.SafeTargets()
	if len(targets) == 0 {
		r.lastTarget = nil
		return
	}
	first := targets[0]
	if r.lastTarget != nil && *r.lastTarget == first {
		return
	}
	r.lastTarget = &first
	if err := r.opts.Actuator.Actuate(targets, res.Origin); err != nil {
		log.Printf("Actuate: %v", err)
	}
}
