// Package main provides the entry point for the Sweeper Vision assistant.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sweeper-vision/internal/actuate"
	"sweeper-vision/internal/app"
	"sweeper-vision/internal/capture"
	"sweeper-vision/internal/classify"
	"sweeper-vision/internal/config"
	"sweeper-vision/internal/detect"
	"sweeper-vision/internal/hotkey"
	"sweeper-vision/internal/logutil"
	"sweeper-vision/internal/ocr"
	"sweeper-vision/internal/render"
	"sweeper-vision/internal/version"
	"sweeper-vision/ui/display"

	fyneapp "fyne.io/fyne/v2/app"
)

const appTitle = "Sweeper Vision"

func main() {
	prefsPath := flag.String("config", "", "Preferences file (default: user config dir)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appTitle, version.String())
		return
	}

	loadOpts := config.LoadOptions{PrefsPath: *prefsPath}
	cfg, prefs, err := config.Load(loadOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logutil.Setup(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	log.Printf("Starting %s %s", appTitle, version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := newRunner(cfg, loadOpts)
	if err := runner.Start(ctx); err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}

	err = hotkey.Listen(ctx, cfg.Hotkey, func() {
		go func() {
			if err := runner.Retarget(ctx); err != nil {
				log.Printf("Retarget failed: %v", err)
			}
		}()
	})
	if err != nil {
		log.Printf("Hotkey disabled: %v", err)
	}

	if cfg.ShowWindow {
		fyneApp := fyneapp.NewWithID("sweeper-vision")
		win := display.New(fyneApp, runner, prefs)
		go func() {
			<-ctx.Done()
			fyneApp.Quit()
		}()
		win.ShowAndRun()
		stop()
	} else {
		<-ctx.Done()
	}

	log.Printf("Shutting down")
	if err := runner.Close(); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

// newRunner wires the pipeline from the configuration.
func newRunner(cfg *config.Config, loadOpts config.LoadOptions) *app.Runner {
	var loaders classify.ChainLoader
	if cfg.TemplateDir != "" {
		loaders = append(loaders, classify.DirLoader{Dir: cfg.TemplateDir})
	}
	if cfg.FontTemplates {
		loaders = append(loaders, classify.FontLoader{Size: cfg.FontTemplateSize})
	}
	bank, err := classify.LoadBank(loaders)
	if err != nil {
		log.Printf("Templates: %v", err)
	}
	if bank.Empty() {
		log.Printf("Templates: none loaded, using the colour heuristic only")
	}
	classifier := &classify.TemplateMatcher{
		Bank:     bank,
		MinScore: cfg.MinScore,
		Fallback: classify.ColorHeuristic{},
	}

	params := detect.DefaultParams().WithHUDTopPercent(cfg.HUDTopPercent)
	controls := app.NewControls(cfg.HUDTopPercent, cfg.AutoMove, cfg.CounterOCR)
	analyzer := app.NewAnalyzer(params, classifier, cfg.Policy(), controls, &app.Status{})
	analyzer.MineCount = cfg.MineCount
	analyzer.RecalibrateInterval = cfg.RecalibrateInterval

	if counter, err := ocr.NewCounterReader(); err != nil {
		log.Printf("Counter OCR unavailable: %v", err)
	} else {
		analyzer.Counter = counter
	}

	return app.NewRunner(analyzer, app.Options{
		CaptureInterval:  cfg.CaptureInterval,
		AnalysisInterval: cfg.AnalysisInterval,
		Renderer:         &render.LogRenderer{},
		Actuator:         actuate.NewCursorActuator(),
		OpenSource: func(ctx context.Context) (capture.Source, error) {
			// Re-read the settings so a retarget picks up edits.
			current, _, err := config.Load(loadOpts)
			if err != nil {
				log.Printf("Config: %v, keeping previous capture settings", err)
				current = cfg
			}
			opts, err := current.CaptureOptions()
			if err != nil {
				return nil, err
			}
			return capture.Open(ctx, opts)
		},
	})
}
