package classify

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"sweeper-vision/internal/render"

	"go.uber.org/multierr"
)

// ErrAbsent reports that a loader has no image for a digit.
var ErrAbsent = errors.New("template absent")

// Loader supplies an encoded grayscale image for each digit 1..8.
type Loader interface {
	Load(digit int) ([]byte, error)
}

// LoadBank builds a bank from l. Absent digits are skipped silently; any
// other per-digit failure is collected and the digit skipped, so the bank
// is usable even when the returned error is non-nil.
func LoadBank(l Loader) (*TemplateBank, error) {
	bank := NewTemplateBank()
	var errs error
	for d := 1; d <= 8; d++ {
		data, err := l.Load(d)
		if errors.Is(err, ErrAbsent) || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("digit %d: %w", d, err))
			continue
		}
		t, err := BinarizeImage(d, data)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := bank.Set(t); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	log.Printf("Templates: loaded digits %v", bank.Digits())
	return bank, errs
}

// DirLoader reads <Dir>/<digit>.png.
type DirLoader struct {
	Dir string
}

func (l DirLoader) Load(digit int) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.Dir, fmt.Sprintf("%d.png", digit)))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// MemLoader serves templates from memory.
type MemLoader map[int][]byte

func (l MemLoader) Load(digit int) ([]byte, error) {
	data, ok := l[digit]
	if !ok {
		return nil, ErrAbsent
	}
	return data, nil
}

// ChainLoader asks each loader in turn and returns the first image found.
type ChainLoader []Loader

func (c ChainLoader) Load(digit int) ([]byte, error) {
	for _, l := range c {
		data, err := l.Load(digit)
		if errors.Is(err, ErrAbsent) || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return nil, ErrAbsent
}

// FontLoader renders digits with the built-in bitmap font, laid out the way
// a cell of Size pixels shows them, with the same inner margin the matcher
// crops.
type FontLoader struct {
	Size int
}

func (l FontLoader) Load(digit int) ([]byte, error) {
	if digit < 1 || digit > 8 {
		return nil, ErrAbsent
	}
	size := l.Size
	if size < 12 {
		size = 20
	}
	cell := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(cell, cell.Bounds(), image.NewUniform(color.Gray{Y: 230}), image.Point{}, draw.Src)
	render.DrawGlyph(cell, cell.Bounds(), rune('0'+digit), color.Gray{Y: 30})

	m := size / 12
	inner := cell.SubImage(image.Rect(m, m, size-m, size-m))

	var buf bytes.Buffer
	if err := png.Encode(&buf, inner); err != nil {
		return nil, fmt.Errorf("digit %d: encode failed: %w", digit, err)
	}
	return buf.Bytes(), nil
}

// SaveBank writes each loaded template to <dir>/<digit>.png so that a bank
// rendered or captured once can be edited and reloaded with DirLoader.
func SaveBank(b *TemplateBank, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create template dir: %w", err)
	}
	var errs error
	for _, d := range b.Digits() {
		t := b.Get(d)
		img := &image.Gray{Pix: t.Pix, Stride: t.Width, Rect: image.Rect(0, 0, t.Width, t.Height)}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("digit %d: %w", d, err))
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.png", d)), buf.Bytes(), 0644); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
