// Command calibtest runs board calibration and cell recognition on image
// files and prints the results.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"sweeper-vision/internal/app"
	"sweeper-vision/internal/board"
	"sweeper-vision/internal/capture"
	"sweeper-vision/internal/classify"
	"sweeper-vision/internal/detect"
	"sweeper-vision/internal/raster"
	"sweeper-vision/internal/render"
	"sweeper-vision/internal/synth"
	"sweeper-vision/internal/version"
	"sweeper-vision/pkg/colorutil"
)

func main() {
	demo := flag.Bool("demo", false, "Run on a generated 16x16 board instead of image files")
	seed := flag.Int64("seed", 1, "Random seed for -demo")
	out := flag.String("out", "", "Write an overlay of the last frame to this path")
	sample := flag.String("sample", "", "Print BGR and HSV of the pixel at x,y of each frame")
	templates := flag.String("templates", "", "Template directory (<digit>.png)")
	saveTemplates := flag.String("save-templates", "", "Write the loaded template bank to this directory")
	fontSize := flag.Int("font", 20, "Cell size for built-in font templates, 0 to disable")
	hud := flag.Int("hud", detect.DefaultParams().HUDTopPercent, "HUD band height in percent of the board")
	policy := flag.String("policy", "sticky", "Stabiliser policy: sticky or passthrough")
	flag.Parse()

	paths := flag.Args()
	if !*demo && len(paths) == 0 {
		fmt.Println("Usage: calibtest [-out overlay.png] [-templates dir] [-sample x,y] <image>...")
		fmt.Println("       calibtest -demo [-seed n] [-out overlay.png]")
		os.Exit(1)
	}
	fmt.Printf("calibtest %s\n", version.String())

	pol, err := board.ParsePolicy(*policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Templates
	var loaders classify.ChainLoader
	if *templates != "" {
		loaders = append(loaders, classify.DirLoader{Dir: *templates})
	}
	if *fontSize > 0 {
		loaders = append(loaders, classify.FontLoader{Size: *fontSize})
	}
	bank, err := classify.LoadBank(loaders)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Template warnings: %v\n", err)
	}
	w, h := bank.Size()
	fmt.Printf("Templates: digits %v at %dx%d\n", bank.Digits(), w, h)
	if *saveTemplates != "" {
		if err := classify.SaveBank(bank, *saveTemplates); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save templates: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Templates saved to %s\n", *saveTemplates)
	}

	// Frames
	var frames []*raster.Raster
	var truth *synth.Board
	if *demo {
		b := demoBoard(*seed)
		truth = &b
		frames = append(frames, b.Render())
	} else {
		for _, p := range paths {
			img, err := raster.Load(p)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
				os.Exit(1)
			}
			fmt.Printf("Loaded %s: %dx%d\n", p, img.Width, img.Height)
			frames = append(frames, img)
		}
	}

	params := detect.DefaultParams().WithHUDTopPercent(*hud)
	analyzer := app.NewAnalyzer(params, classify.New(bank), pol, nil, nil)
	analyzer.RecalibrateInterval = 0

	var last *app.Result
	for i, img := range frames {
		fmt.Printf("\n=== Frame %d (%dx%d) ===\n", i+1, img.Width, img.Height)
		if *sample != "" {
			printSample(img, *sample)
		}
		if cands, err := detect.BoardCandidates(img, params); err == nil {
			fmt.Printf("Board candidates: %d\n", len(cands))
			for j, c := range cands {
				if j == 5 {
					break
				}
				fmt.Printf("  %v density %.3f score %.0f\n", c.Rect, c.EdgeDensity, c.Score)
			}
		}

		res, err := analyzer.Pass(capture.Frame{Image: img, Seq: uint64(i + 1)})
		if err != nil {
			fmt.Printf("Pass failed: %v\n", err)
			continue
		}
		last = res
		cal := res.Calibration
		fmt.Printf("Board: %v\n", cal.Board)
		fmt.Printf("Grid:  %v (%v)\n", cal.Grid, cal.Layout)
		fmt.Printf("%s\n%s\n", render.Summary(res.State), res.State)
		fmt.Printf("Safe: %v\n", res.State.SafeCells)
		fmt.Printf("Mines: %v\n", res.State.MineCells)
	}

	if truth != nil && last != nil {
		compare(*truth, last.State)
	}

	if *out != "" && last != nil {
		if err := render.WriteOverlay(*out, last); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write overlay: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nOverlay written to %s\n", *out)
	}
	if last == nil {
		os.Exit(2)
	}
}

// demoBoard fills a 16x16 board with random unopened cells, zeros and
// small numbers. Flags and mines are left out: the classifier does not
// recognise them.
func demoBoard(seed int64) synth.Board {
	rng := rand.New(rand.NewSource(seed))
	b := synth.Classic(16, 16)
	b.Margin = 30
	b.Cells = make([]board.CellValue, 16*16)
	for i := range b.Cells {
		switch n := rng.Intn(10); {
		case n < 4:
			b.Cells[i] = board.Unopened
		case n < 7:
			b.Cells[i] = board.Number(0)
		default:
			b.Cells[i] = board.Number(1 + rng.Intn(3))
		}
	}
	return b
}

// compare prints the cells whose recognised value differs from the board
// that was drawn.
func compare(truth synth.Board, got *board.GameState) {
	if got.Rows != truth.Rows || got.Cols != truth.Cols {
		fmt.Printf("\nLayout mismatch: drew %dx%d, found %dx%d\n", truth.Rows, truth.Cols, got.Rows, got.Cols)
		return
	}
	var diffs []string
	for r := 0; r < truth.Rows; r++ {
		for c := 0; c < truth.Cols; c++ {
			if want, have := truth.At(r, c), got.At(r, c); want != have {
				diffs = append(diffs, fmt.Sprintf("(%d,%d) %v->%v", r, c, want, have))
			}
		}
	}
	fmt.Printf("\nDemo: %d of %d cells differ\n", len(diffs), truth.Rows*truth.Cols)
	if len(diffs) > 0 {
		fmt.Println("  " + strings.Join(diffs, " "))
	}
}

func printSample(img *raster.Raster, at string) {
	var x, y int
	if _, err := fmt.Sscanf(at, "%d,%d", &x, &y); err != nil || x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		fmt.Printf("Sample %q: outside the frame\n", at)
		return
	}
	b, g, r := img.BGRAt(x, y)
	hh, s, v := colorutil.RGBToHSV(float64(r), float64(g), float64(b))
	fmt.Printf("Sample (%d,%d): BGR(%d,%d,%d) HSV(%.0f,%.0f,%.0f)\n", x, y, b, g, r, hh, s, v)
}
