package drawing_test

import (
	"math"
	"testing"
	"time"

	"thumbio/internal/domain"
	"thumbio/internal/drawing"
	"thumbio/internal/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

func TestMinPointDistance(t *testing.T) {
	assert.Equal(t, 3.0, drawing.MinPointDistance(1))
	assert.Equal(t, 1.0, drawing.MinPointDistance(4))
	assert.Equal(t, 30.0, drawing.MinPointDistance(0.1))
	assert.Equal(t, 1.0, drawing.MinPointDistance(0))
}

func TestStroke_SinglePointIsDiscarded(t *testing.T) {
	s := drawing.NewStroke(nil)
	s.Begin(pt(10, 10), drawing.DefaultStyle, 0)
	assert.False(t, s.Add(pt(11, 10), 1), "closer than the minimum distance")

	_, ok := s.Finish()
	assert.False(t, ok)
	assert.False(t, s.Active())
}

func TestStroke_KeepsEndpointsAfterSmoothing(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := drawing.NewStroke(func() time.Time { return created })
	s.Begin(pt(0, 0), drawing.DefaultStyle, 2)
	require.True(t, s.Add(pt(10, 0), 1))
	require.True(t, s.Add(pt(20, 10), 1))
	require.True(t, s.Add(pt(30, 0), 1))
	assert.Len(t, s.Preview(), 4)

	d, ok := s.Finish()
	require.True(t, ok)
	require.Len(t, d.Points, 4)
	assert.Equal(t, pt(0, 0), d.Points[0])
	assert.Equal(t, pt(30, 0), d.Points[3])
	assert.InDelta(t, 10.0, d.Points[1].X, 1e-9)
	assert.InDelta(t, 10.0/3, d.Points[1].Y, 1e-9)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, 2, d.Layer)
	assert.Equal(t, created, d.CreatedAt)
}

func TestStroke_ZoomedInKeepsDenserPoints(t *testing.T) {
	s := drawing.NewStroke(nil)
	s.Begin(pt(0, 0), drawing.DefaultStyle, 0)
	assert.False(t, s.Add(pt(2, 0), 1))
	assert.True(t, s.Add(pt(2, 0), 4))
}

func TestStroke_RejectsNonFinite(t *testing.T) {
	s := drawing.NewStroke(nil)
	s.Begin(pt(0, 0), drawing.DefaultStyle, 0)
	assert.False(t, s.Add(pt(math.Inf(1), 0), 1))
	assert.False(t, s.Add(pt(5, math.NaN()), 1))
}

func TestSmooth_ShortInputsUnchanged(t *testing.T) {
	in := []geometry.Point{pt(0, 0), pt(5, 5)}
	assert.Equal(t, in, drawing.Smooth(in))
}

func TestErase_RemovesStrokesWithinRadius(t *testing.T) {
	drawings := []domain.Drawing{
		{ID: "near", Points: []geometry.Point{pt(0, 0), pt(100, 100)}},
		{ID: "far", Points: []geometry.Point{pt(500, 500), pt(600, 600)}},
	}
	kept, removed := drawing.Erase(drawings, pt(105, 100), drawing.EraserRadius(4))
	assert.Equal(t, []string{"near"}, removed)
	require.Len(t, kept, 1)
	assert.Equal(t, "far", kept[0].ID)
	assert.Len(t, drawings, 2, "input must not be modified")
}

func TestEraseGesture_BatchesRemovals(t *testing.T) {
	drawings := []domain.Drawing{
		{ID: "a", Points: []geometry.Point{pt(0, 0)}},
		{ID: "b", Points: []geometry.Point{pt(50, 0)}},
		{ID: "c", Points: []geometry.Point{pt(300, 0)}},
	}
	var g drawing.EraseGesture
	g.Begin(2)
	drawings = g.At(drawings, pt(1, 0))
	drawings = g.At(drawings, pt(49, 0))
	assert.Equal(t, 2, g.Finish())
	require.Len(t, drawings, 1)
	assert.Equal(t, "c", drawings[0].ID)
	assert.False(t, g.Active())
}
