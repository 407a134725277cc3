// Package app drives the assistant: a capture worker publishing frames, an
// analysis worker running the recognition pipeline, and the controls, status
// and events shared with the outside.
package app

import (
	"sync"
	"sync/atomic"
	"time"

	"sweeper-vision/internal/detect"
)

// Controls are operator-adjustable settings. Any goroutine may write them;
// the analysis worker reads them at the start of each pass.
type Controls struct {
	hudTopPercent atomic.Int32
	autoMove      atomic.Bool
	counterOCR    atomic.Bool
	recalibrate   atomic.Bool
}

// NewControls creates controls with the given initial values.
func NewControls(hudTopPercent int, autoMove, counterOCR bool) *Controls {
	c := &Controls{}
	c.SetHUDTopPercent(hudTopPercent)
	c.autoMove.Store(autoMove)
	c.counterOCR.Store(counterOCR)
	return c
}

// HUDTopPercent returns the HUD band height as a percentage of the board.
func (c *Controls) HUDTopPercent() int { return int(c.hudTopPercent.Load()) }

// SetHUDTopPercent stores pct clamped to [10, 70].
func (c *Controls) SetHUDTopPercent(pct int) {
	c.hudTopPercent.Store(int32(detect.ClampHUDPercent(pct)))
}

func (c *Controls) AutoMove() bool        { return c.autoMove.Load() }
func (c *Controls) SetAutoMove(on bool)   { c.autoMove.Store(on) }
func (c *Controls) CounterOCR() bool      { return c.counterOCR.Load() }
func (c *Controls) SetCounterOCR(on bool) { c.counterOCR.Store(on) }

// RequestRecalibration asks the next pass to re-run board detection.
func (c *Controls) RequestRecalibration() { c.recalibrate.Store(true) }

func (c *Controls) takeRecalibration() bool { return c.recalibrate.Swap(false) }

// Status is written by the workers only and may be read from anywhere.
type Status struct {
	frames       atomic.Uint64
	passes       atomic.Uint64
	calibrations atomic.Uint64
	calibrated   atomic.Bool
	lastPass     atomic.Int64 // unix nanoseconds
	lastError    atomic.Value // string
}

// StatusSnapshot is a consistent-enough copy of Status for display.
type StatusSnapshot struct {
	Frames       uint64
	Passes       uint64
	Calibrations uint64
	Calibrated   bool
	LastPass     time.Time
	LastError    string
}

// Snapshot copies the current counters.
func (s *Status) Snapshot() StatusSnapshot {
	snap := StatusSnapshot{
		Frames:       s.frames.Load(),
		Passes:       s.passes.Load(),
		Calibrations: s.calibrations.Load(),
		Calibrated:   s.calibrated.Load(),
	}
	if ns := s.lastPass.Load(); ns != 0 {
		snap.LastPass = time.Unix(0, ns)
	}
	if msg, ok := s.lastError.Load().(string); ok {
		snap.LastError = msg
	}
	return snap
}

func (s *Status) setError(err error) {
	if err == nil {
		s.lastError.Store("")
		return
	}
	s.lastError.Store(err.Error())
}

// EventType identifies runner events.
type EventType int

const (
	EventStateUpdated EventType = iota // data: *Result
	EventCalibrated                    // data: Calibration
	EventNotFound                      // data: error
	EventRetargeted                    // data: nil
)

// EventListener is called when an event occurs, on the emitting goroutine.
type EventListener func(data interface{})

// Events dispatches runner events to listeners.
type Events struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// On registers an event listener for the specified event type.
func (e *Events) On(event EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Events) Emit(event EventType, data interface{}) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
