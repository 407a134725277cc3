// Package ocr reads the remaining-mines counter from the HUD with Tesseract.
package ocr

import (
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"sweeper-vision/internal/detect"
	"sweeper-vision/internal/raster"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// CounterChars restricts recognition to what an LED counter can show.
const CounterChars = "0123456789-"

// CounterReader recognises the mine counter in the left of the HUD band.
// It is not safe for concurrent use.
type CounterReader struct {
	client *gosseract.Client
}

// NewCounterReader creates a reader backed by a Tesseract client.
func NewCounterReader() (*CounterReader, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	// Digits only; no dictionary correction.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	if err := client.SetWhitelist(CounterChars); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}

	return &CounterReader{client: client}, nil
}

// Close releases OCR resources.
func (r *CounterReader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ReadCounter recognises the counter drawn in the HUD of a board region.
func (r *CounterReader) ReadCounter(region *raster.Raster, p detect.Params) (int, error) {
	if region.Empty() {
		return 0, fmt.Errorf("empty region")
	}
	rect := detect.CounterRegion(region.Width, region.Height, p)
	if bottom, ok := detect.HUDBottom(region, p); ok {
		rect.Height = min(rect.Height, bottom+1)
	}
	counter := region.Crop(rect)
	if counter.Empty() {
		return 0, fmt.Errorf("empty counter region")
	}

	processed, err := preprocessCounter(counter, p)
	if err != nil {
		return 0, err
	}
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return 0, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := r.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return 0, fmt.Errorf("failed to set image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return 0, fmt.Errorf("OCR failed: %w", err)
	}
	return ParseCounter(text)
}

// preprocessCounter turns lit LED segments into dark text on white, scaled
// up and padded the way Tesseract prefers.
func preprocessCounter(counter *raster.Raster, p detect.Params) (gocv.Mat, error) {
	mask, err := detect.HUDMask(counter, p)
	if err != nil {
		return mask, err
	}
	defer mask.Close()
	if gocv.CountNonZero(mask) == 0 {
		return gocv.NewMat(), fmt.Errorf("no lit counter segments")
	}

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(mask, &inverted)

	scaled := gocv.NewMat()
	defer scaled.Close()
	if h := inverted.Rows(); h < 150 {
		scale := 150.0 / float64(h)
		gocv.Resize(inverted, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		inverted.CopyTo(&scaled)
	}

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(scaled, &padded, 20, 20, 20, 20, gocv.BorderConstant, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return padded, nil
}

var counterPattern = regexp.MustCompile(`-?\d+`)

// ParseCounter extracts the counter value from recognised text. Spaces
// between digits are ignored.
func ParseCounter(text string) (int, error) {
	compact := strings.Join(strings.Fields(text), "")
	m := counterPattern.FindString(compact)
	if m == "" {
		return 0, fmt.Errorf("no digits in %q", strings.TrimSpace(text))
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("bad counter %q: %w", m, err)
	}
	if n < -99 || n > 999 {
		return 0, fmt.Errorf("counter %d out of range", n)
	}
	return n, nil
}
