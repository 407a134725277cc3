package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawGlyph draws a character centred in r with the 7x13 basic font,
// doubled one pixel to the right so thin strokes survive scaling.
func DrawGlyph(img draw.Image, r image.Rectangle, ch rune, col color.Color) {
	face := basicfont.Face7x13
	x := r.Min.X + (r.Dx()-face.Width)/2
	y := r.Min.Y + (r.Dy()+face.Ascent-face.Descent)/2
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
	for dx := 0; dx < 2; dx++ {
		d.Dot = fixed.P(x+dx, y)
		d.DrawString(string(ch))
	}
}

// DrawText draws s with its baseline at (x, y).
func DrawText(img draw.Image, x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
