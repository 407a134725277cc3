// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"image"
)

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the sum of two points.
func (p PointInt) Add(other PointInt) PointInt {
	return PointInt{X: p.X + other.X, Y: p.Y + other.Y}
}

// RectInt represents a rectangle with integer coordinates in the space of
// its parent image.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// FromImageRect converts an image.Rectangle.
func FromImageRect(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ToImageRect converts to an image.Rectangle.
func (r RectInt) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns width*height, or 0 for an empty rectangle.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Right returns the exclusive right edge.
func (r RectInt) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r RectInt) Bottom() int { return r.Y + r.Height }

// Center returns the integer center point.
func (r RectInt) Center() PointInt {
	return PointInt{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Aspect returns width/height, or 0 for a degenerate rectangle.
func (r RectInt) Aspect() float64 {
	if r.Height <= 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// Intersect returns the overlap of two rectangles. The result is the zero
// rectangle when they do not overlap.
func (r RectInt) Intersect(other RectInt) RectInt {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.Right(), other.Right())
	y1 := min(r.Bottom(), other.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return RectInt{}
	}
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ClipTo intersects the rectangle with a parent of the given size at origin.
func (r RectInt) ClipTo(width, height int) RectInt {
	return r.Intersect(RectInt{Width: width, Height: height})
}

// Inset shrinks the rectangle by dx on the left and right and dy on the top
// and bottom. The result may be empty.
func (r RectInt) Inset(dx, dy int) RectInt {
	out := RectInt{X: r.X + dx, Y: r.Y + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
	if out.Empty() {
		return RectInt{}
	}
	return out
}

// Offset translates the rectangle.
func (r RectInt) Offset(dx, dy int) RectInt {
	return RectInt{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Contains reports whether other lies entirely inside r.
func (r RectInt) Contains(other RectInt) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

func (r RectInt) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
