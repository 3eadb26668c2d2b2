package geometry_test

import (
	"math"
	"testing"

	"thumbio/internal/geometry"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_NegativeSize(t *testing.T) {
	r := geometry.RectFromCorners(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 10, Y: 10})
	b := r.Normalize()
	assert.Equal(t, geometry.Bounds{Left: 10, Right: 50, Top: 10, Bottom: 50}, b)
}

func TestIntersects_CornerOrderDoesNotMatter(t *testing.T) {
	box := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 80}
	corners := [][2]geometry.Point{
		{{X: 10, Y: 10}, {X: 50, Y: 50}},
		{{X: 50, Y: 50}, {X: 10, Y: 10}},
		{{X: 50, Y: 10}, {X: 10, Y: 50}},
		{{X: 10, Y: 50}, {X: 50, Y: 10}},
	}
	for _, c := range corners {
		assert.True(t, geometry.Intersects(geometry.RectFromCorners(c[0], c[1]), box), "corners %v", c)
	}

	far := [][2]geometry.Point{
		{{X: 200, Y: 200}, {X: 300, Y: 300}},
		{{X: 300, Y: 300}, {X: 200, Y: 200}},
	}
	for _, c := range far {
		assert.False(t, geometry.Intersects(geometry.RectFromCorners(c[0], c[1]), box), "corners %v", c)
	}
}

func TestIntersects_SharedEdgeIsNotIntersection(t *testing.T) {
	box := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 80}

	assert.False(t, geometry.Intersects(geometry.Rect{X: 100, Y: 0, Width: 20, Height: 20}, box))
	assert.False(t, geometry.Intersects(geometry.Rect{X: -20, Y: 10, Width: 20, Height: 20}, box))
	assert.False(t, geometry.Intersects(geometry.Rect{X: 10, Y: 80, Width: 20, Height: 20}, box))
	assert.False(t, geometry.Intersects(geometry.Rect{X: 10, Y: -20, Width: 20, Height: 20}, box))
	// Dragged right-to-left ending on the edge.
	assert.False(t, geometry.Intersects(geometry.Rect{X: 120, Y: 10, Width: -20, Height: 20}, box))

	assert.True(t, geometry.Intersects(geometry.Rect{X: 99.5, Y: 0, Width: 20, Height: 20}, box))
}

func TestBoundsContains(t *testing.T) {
	b := geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}.Bounds()
	assert.True(t, b.Contains(geometry.Point{X: 10, Y: 10}))
	assert.False(t, b.Contains(geometry.Point{X: 10.1, Y: 5}))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, geometry.IsFinite(1.5))
	assert.False(t, geometry.IsFinite(math.NaN()))
	assert.False(t, geometry.IsFinite(math.Inf(-1)))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, geometry.Distance(geometry.Point{}, geometry.Point{X: 3, Y: 4}), 1e-9)
}
