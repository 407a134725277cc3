package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntersect(t *testing.T) {
	a := NewRectInt(0, 0, 100, 50)
	b := NewRectInt(80, 40, 50, 50)
	assert.Equal(t, NewRectInt(80, 40, 20, 10), a.Intersect(b))
	assert.True(t, a.Intersect(NewRectInt(200, 200, 5, 5)).Empty())
}

func TestRectClipTo(t *testing.T) {
	r := NewRectInt(-10, -5, 50, 50).ClipTo(30, 30)
	assert.Equal(t, NewRectInt(0, 0, 30, 30), r)
}

func TestRectInset(t *testing.T) {
	assert.Equal(t, NewRectInt(12, 12, 16, 6), NewRectInt(10, 10, 20, 10).Inset(2, 2))
	assert.True(t, NewRectInt(0, 0, 4, 4).Inset(2, 2).Empty())
}

func TestIsConvex(t *testing.T) {
	square := []PointInt{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.True(t, IsConvex(square))

	dart := []PointInt{{0, 0}, {10, 0}, {3, 3}, {0, 10}}
	assert.False(t, IsConvex(dart))

	line := []PointInt{{0, 0}, {5, 0}, {10, 0}}
	assert.False(t, IsConvex(line))
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox([]PointInt{{4, 9}, {2, 3}, {7, 5}})
	assert.Equal(t, NewRectInt(2, 3, 6, 7), box)
}
