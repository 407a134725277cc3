// Package colorutil provides shared color utilities for the assistant.
package colorutil

import (
	"image/color"
	"math"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Gray    = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	Light   = color.RGBA{R: 222, G: 222, B: 222, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 220, G: 0, B: 0, A: 255}
)

// numberColors follows the classic palette for counts 1..8.
var numberColors = [9]color.RGBA{
	{R: 0, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 255, A: 255},
	{R: 0, G: 128, B: 0, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 128, A: 255},
	{R: 128, G: 0, B: 0, A: 255},
	{R: 0, G: 128, B: 128, A: 255},
	{R: 0, G: 0, B: 0, A: 255},
	{R: 128, G: 128, B: 128, A: 255},
}

// NumberColor returns the display color for a neighbour count.
func NumberColor(n int) color.RGBA {
	if n < 0 || n >= len(numberColors) {
		return Black
	}
	return numberColors[n]
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	h = h / 2 // OpenCV's 0-180 range

	return h, s, v
}
