// Package drawing turns pointer drags into smoothed freehand strokes and
// implements the stroke eraser.
package drawing

import (
	"math"
	"time"

	"thumbio/internal/domain"
	"thumbio/internal/geometry"

	"github.com/google/uuid"
)

// DefaultStyle is the brush used when the caller has not picked one.
var DefaultStyle = domain.StrokeStyle{Color: "#ef4444", Width: 4, Alpha: 1}

// MinPointDistance is the spacing, in canvas units, below which a new sample is
// skipped. It shrinks as the user zooms in so on-screen density stays constant.
func MinPointDistance(scale float64) float64 {
	if scale <= 0 || !geometry.IsFinite(scale) {
		return 1
	}
	return math.Max(1, 3/scale)
}

// Stroke accumulates the points of one in-progress stroke.
type Stroke struct {
	active bool
	points []geometry.Point
	style  domain.StrokeStyle
	layer  int
	now    func() time.Time
}

// NewStroke returns an idle accumulator. now may be nil.
func NewStroke(now func() time.Time) *Stroke {
	if now == nil {
		now = time.Now
	}
	return &Stroke{now: now}
}

// Begin starts a stroke with a single point.
func (s *Stroke) Begin(p geometry.Point, style domain.StrokeStyle, layer int) {
	s.active = true
	s.points = []geometry.Point{p}
	s.style = style
	s.layer = layer
}

// Active reports whether a stroke is being drawn.
func (s *Stroke) Active() bool { return s.active }

// Add appends p when it is far enough from the last recorded point at the
// given viewport scale. It reports whether p was kept.
func (s *Stroke) Add(p geometry.Point, scale float64) bool {
	if !s.active || !geometry.IsFinite(p.X) || !geometry.IsFinite(p.Y) {
		return false
	}
	last := s.points[len(s.points)-1]
	if geometry.Distance(last, p) <= MinPointDistance(scale) {
		return false
	}
	s.points = append(s.points, p)
	return true
}

// Preview returns the raw points recorded so far for live rendering.
func (s *Stroke) Preview() []geometry.Point {
	return append([]geometry.Point(nil), s.points...)
}

// Finish ends the stroke. Strokes with fewer than two points are discarded and
// ok is false.
func (s *Stroke) Finish() (d domain.Drawing, ok bool) {
	defer s.Cancel()
	if !s.active || len(s.points) < 2 {
		return domain.Drawing{}, false
	}
	return domain.Drawing{
		ID:        uuid.NewString(),
		Points:    Smooth(s.points),
		Style:     s.style,
		Layer:     s.layer,
		CreatedAt: s.now(),
	}, true
}

// Cancel discards the stroke.
func (s *Stroke) Cancel() {
	s.active = false
	s.points = nil
}

// Smooth applies a three-point moving average. The first and last points are
// kept exactly.
func Smooth(points []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(points))
	copy(out, points)
	if len(points) < 3 {
		return out
	}
	for i := 1; i < len(points)-1; i++ {
		out[i] = geometry.Point{
			X: (points[i-1].X + points[i].X + points[i+1].X) / 3,
			Y: (points[i-1].Y + points[i].Y + points[i+1].Y) / 3,
		}
	}
	return out
}
