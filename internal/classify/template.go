// Package classify turns a cropped cell image into a board.CellValue.
//
// TemplateMatcher compares the cell against binarised digit glyphs and falls
// back to ColorHeuristic when no template matches well. ColorHeuristic is a
// coarse stand-in: it only separates revealed zeros, the blue 1, green 2 and
// red 3, and unopened cells. Every other value reads as one of those.
package classify

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Template is a binarised reference glyph: 0 or 255 per pixel, row-major.
type Template struct {
	Digit  int
	Width  int
	Height int
	Pix    []byte
}

// BinarizeImage decodes an encoded grayscale image (png, jpeg, bmp) and
// binarises it with Otsu's threshold.
func BinarizeImage(digit int, data []byte) (*Template, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("digit %d: empty template data", digit)
	}
	gray, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return nil, fmt.Errorf("digit %d: decode failed: %w", digit, err)
	}
	defer gray.Close()
	if gray.Empty() {
		return nil, fmt.Errorf("digit %d: undecodable template", digit)
	}
	return binarizeMat(digit, gray), nil
}

func binarizeMat(digit int, gray gocv.Mat) *Template {
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	return &Template{Digit: digit, Width: bin.Cols(), Height: bin.Rows(), Pix: bin.ToBytes()}
}

// Mat returns the template as a new single-channel Mat.
func (t *Template) Mat() (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(t.Height, t.Width, gocv.MatTypeCV8UC1, t.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("digit %d: %w", t.Digit, err)
	}
	defer view.Close()
	return view.Clone(), nil
}

// resized returns a copy scaled to w x h and binarised again.
func (t *Template) resized(w, h int) (*Template, error) {
	src, err := t.Mat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
	return binarizeMat(t.Digit, dst), nil
}

// TemplateBank holds the optional templates for digits 1..8. All templates
// share the size of the first one added.
type TemplateBank struct {
	templates [9]*Template
	width     int
	height    int
}

// NewTemplateBank creates an empty bank.
func NewTemplateBank() *TemplateBank {
	return &TemplateBank{}
}

// Set stores t for its digit, resizing it to the bank's canonical size.
func (b *TemplateBank) Set(t *Template) error {
	if t == nil || t.Digit < 1 || t.Digit > 8 {
		return fmt.Errorf("template digit out of range")
	}
	if t.Width <= 0 || t.Height <= 0 || len(t.Pix) != t.Width*t.Height {
		return fmt.Errorf("digit %d: malformed template", t.Digit)
	}
	if b.width == 0 {
		b.width, b.height = t.Width, t.Height
	} else if t.Width != b.width || t.Height != b.height {
		r, err := t.resized(b.width, b.height)
		if err != nil {
			return err
		}
		t = r
	}
	b.templates[t.Digit] = t
	return nil
}

// Get returns the template for digit, or nil.
func (b *TemplateBank) Get(digit int) *Template {
	if b == nil || digit < 1 || digit > 8 {
		return nil
	}
	return b.templates[digit]
}

// Digits returns the loaded digits in ascending order.
func (b *TemplateBank) Digits() []int {
	if b == nil {
		return nil
	}
	var out []int
	for d := 1; d <= 8; d++ {
		if b.templates[d] != nil {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of loaded templates.
func (b *TemplateBank) Len() int {
	return len(b.Digits())
}

// Empty reports whether no template is loaded.
func (b *TemplateBank) Empty() bool {
	return b.Len() == 0
}

// Size returns the canonical template size.
func (b *TemplateBank) Size() (width, height int) {
	if b == nil {
		return 0, 0
	}
	return b.width, b.height
}
