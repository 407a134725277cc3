// Package display shows the recognised board next to the game.
package display

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"sweeper-vision/internal/app"
	"sweeper-vision/internal/config"
	"sweeper-vision/internal/detect"
	"sweeper-vision/internal/render"
	"sweeper-vision/internal/version"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyHUDTopPercent = "hud_top_percent"
	prefKeyAutoMove      = "auto_move"
	prefKeyCounterOCR    = "counter_ocr"

	cellPixels = 22
)

// Window renders the latest game state and exposes the runtime controls.
type Window struct {
	fyne.Window
	runner *app.Runner
	prefs  *config.Prefs

	board     *canvas.Image
	statusBar *widget.Label

	mu       sync.Mutex
	lastGrid string
}

// New creates the assistant window and subscribes it to runner events.
func New(fyneApp fyne.App, runner *app.Runner, prefs *config.Prefs) *Window {
	fyneApp.Settings().SetTheme(&SweeperTheme{})
	win := fyneApp.NewWindow("Sweeper Vision " + version.Version)

	w := &Window{
		Window: win,
		runner: runner,
		prefs:  prefs,
	}
	w.setupUI()
	w.setupEventHandlers()
	return w
}

// setupUI creates the board view, the controls and the status bar.
func (w *Window) setupUI() {
	w.board = canvas.NewImageFromImage(render.BoardImage(nil, cellPixels))
	w.board.FillMode = canvas.ImageFillContain
	w.board.ScaleMode = canvas.ImageScalePixels
	w.board.SetMinSize(fyne.NewSize(16*cellPixels, 16*cellPixels))

	w.statusBar = widget.NewLabel("Waiting for the board")

	content := container.NewBorder(
		w.createControls(),               // top
		container.NewPadded(w.statusBar), // bottom
		nil,                              // left
		nil,                              // right
		w.board,                          // center
	)
	w.SetContent(content)
}

// createControls builds the HUD band slider and the feature toggles.
func (w *Window) createControls() fyne.CanvasObject {
	controls := w.runner.Controls()

	hudLabel := widget.NewLabel(fmt.Sprintf("HUD %d%%", controls.HUDTopPercent()))
	hud := widget.NewSlider(10, 70)
	hud.Step = 1
	hud.SetValue(float64(controls.HUDTopPercent()))
	hud.OnChanged = func(v float64) {
		pct := detect.ClampHUDPercent(int(v))
		hudLabel.SetText(fmt.Sprintf("HUD %d%%", pct))
		controls.SetHUDTopPercent(pct)
		controls.RequestRecalibration()
		w.prefs.SetInt(prefKeyHUDTopPercent, pct)
		w.savePrefs()
	}

	autoMove := widget.NewCheck("Move cursor", func(on bool) {
		controls.SetAutoMove(on)
		w.prefs.SetBool(prefKeyAutoMove, on)
		w.savePrefs()
	})
	autoMove.SetChecked(controls.AutoMove())

	counter := widget.NewCheck("Read counter", func(on bool) {
		controls.SetCounterOCR(on)
		w.prefs.SetBool(prefKeyCounterOCR, on)
		w.savePrefs()
	})
	counter.SetChecked(controls.CounterOCR())

	recal := widget.NewButton("Recalibrate", controls.RequestRecalibration)
	retarget := widget.NewButton("Retarget", func() {
		go func() {
			if err := w.runner.Retarget(context.Background()); err != nil {
				w.updateStatus("Retarget failed: " + err.Error())
			}
		}()
	})

	return container.NewVBox(
		container.NewBorder(nil, nil, hudLabel, nil, hud),
		container.NewHBox(autoMove, counter, recal, retarget),
	)
}

// setupEventHandlers registers for runner events. Handlers run on the
// analysis worker.
func (w *Window) setupEventHandlers() {
	w.runner.On(app.EventStateUpdated, func(data interface{}) {
		if res, ok := data.(*app.Result); ok {
			w.showResult(res)
		}
	})

	w.runner.On(app.EventCalibrated, func(data interface{}) {
		if cal, ok := data.(app.Calibration); ok {
			w.updateStatus(fmt.Sprintf("Calibrated %v", cal.Layout))
		}
	})

	w.runner.On(app.EventNotFound, func(data interface{}) {
		if err, ok := data.(error); ok && errors.Is(err, detect.ErrNotFound) {
			w.updateStatus("Board not found")
		}
	})

	w.runner.On(app.EventRetargeted, func(interface{}) {
		w.mu.Lock()
		w.lastGrid = ""
		w.mu.Unlock()
		w.updateStatus("Retargeted, waiting for the board")
	})
}

// showResult redraws the board when the grid changed.
func (w *Window) showResult(res *app.Result) {
	grid := res.State.String()
	w.mu.Lock()
	changed := grid != w.lastGrid
	w.lastGrid = grid
	w.mu.Unlock()

	snap := w.runner.Status()
	w.updateStatus(fmt.Sprintf("%s | frames %d passes %d", render.Summary(res.State), snap.Frames, snap.Passes))
	if !changed {
		return
	}
	w.board.Image = render.BoardImage(res.State, cellPixels)
	w.board.Refresh()
}

func (w *Window) updateStatus(msg string) {
	w.statusBar.SetText(msg)
}

func (w *Window) savePrefs() {
	if err := w.prefs.Save(); err != nil {
		log.Printf("Display: saving preferences: %v", err)
	}
}
