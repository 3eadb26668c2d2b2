// Package geometry holds the canvas-space primitives shared by the selection,
// drawing and viewport code.
package geometry

import "math"

// Point is a position in canvas or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle given by origin and size. Width and Height
// may be negative while a drag is in progress.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds is a normalized rectangle expressed as edges.
type Bounds struct {
	Left, Right, Top, Bottom float64
}

// RectFromCorners builds the rectangle spanned by a drag from start to end.
func RectFromCorners(start, end Point) Rect {
	return Rect{X: start.X, Y: start.Y, Width: end.X - start.X, Height: end.Y - start.Y}
}

// Normalize turns a rectangle with possibly negative size into edges.
func (r Rect) Normalize() Bounds {
	left, right := r.X, r.X+r.Width
	if left > right {
		left, right = right, left
	}
	top, bottom := r.Y, r.Y+r.Height
	if top > bottom {
		top, bottom = bottom, top
	}
	return Bounds{Left: left, Right: right, Top: top, Bottom: bottom}
}

// Bounds returns the normalized edges of r.
func (r Rect) Bounds() Bounds { return r.Normalize() }

// Intersects reports whether the two boxes overlap. Boxes that only share an
// edge do not intersect.
func (b Bounds) Intersects(c Bounds) bool {
	return !(b.Right <= c.Left || b.Left >= c.Right || b.Bottom <= c.Top || b.Top >= c.Bottom)
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Top && p.Y <= b.Bottom
}

// Intersects tests the normalized forms of r and c.
func Intersects(r, c Rect) bool {
	return r.Normalize().Intersects(c.Normalize())
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
