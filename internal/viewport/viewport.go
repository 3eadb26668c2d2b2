// Package viewport owns the canvas-to-screen transform and its zoom ladder.
package viewport

import (
	"math"

	"thumbio/internal/geometry"

	"github.com/sirupsen/logrus"
)

// Ladder is the sequence of zoom levels ZoomIn and ZoomOut step through.
var Ladder = []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 3, 4}

const (
	MinZoom float64 = 0.1
	MaxZoom float64 = 4

	epsilon = 1e-9
)

// Transform maps canvas space to screen space: screen = canvas*Scale + (X, Y).
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Identity is the reset view.
var Identity = Transform{X: 0, Y: 0, Scale: 1}

// WorldToScreen projects a canvas point onto the screen.
func (t Transform) WorldToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*t.Scale + t.X, Y: p.Y*t.Scale + t.Y}
}

// ScreenToWorld maps a screen point back to canvas space.
func (t Transform) ScreenToWorld(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X - t.X) / t.Scale, Y: (p.Y - t.Y) / t.Scale}
}

// Clamp limits s to [MinZoom, MaxZoom]. Non-finite or non-positive values
// clamp to MinZoom.
func Clamp(s float64) float64 {
	if !geometry.IsFinite(s) || s < MinZoom {
		return MinZoom
	}
	return math.Min(s, MaxZoom)
}

// Listener is notified after every transform change.
type Listener interface {
	ViewportChanged(t Transform)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Transform)

// ViewportChanged calls f(t).
func (f ListenerFunc) ViewportChanged(t Transform) { f(t) }

// Controller owns the transform of one canvas view.
type Controller struct {
	t         Transform
	width     float64
	height    float64
	listeners map[int]Listener
	nextID    int
	log       *logrus.Entry
}

// NewController returns a controller at the identity transform for a screen
// of the given size.
func NewController(width, height float64) *Controller {
	return &Controller{
		t:         Identity,
		width:     width,
		height:    height,
		listeners: make(map[int]Listener),
		log:       logrus.WithField("component", "viewport"),
	}
}

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// Scale returns the current zoom level.
func (c *Controller) Scale() float64 { return c.t.Scale }

// SetScreenSize updates the size used for screen-centre anchoring.
func (c *Controller) SetScreenSize(width, height float64) {
	c.width, c.height = width, height
}

// Center is the screen-space centre of the view.
func (c *Controller) Center() geometry.Point {
	return geometry.Point{X: c.width / 2, Y: c.height / 2}
}

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() { delete(c.listeners, id) }
}

// WorldToScreen projects p with the current transform.
func (c *Controller) WorldToScreen(p geometry.Point) geometry.Point { return c.t.WorldToScreen(p) }

// ScreenToWorld unprojects p with the current transform.
func (c *Controller) ScreenToWorld(p geometry.Point) geometry.Point { return c.t.ScreenToWorld(p) }

// ZoomToPoint changes the scale while keeping the screen point p fixed.
func (c *Controller) ZoomToPoint(p geometry.Point, scale float64) {
	next := Clamp(scale)
	w := c.t.ScreenToWorld(p)
	c.set(Transform{X: p.X - w.X*next, Y: p.Y - w.Y*next, Scale: next})
}

// ZoomToScale zooms to scale anchored at the screen centre.
func (c *Controller) ZoomToScale(scale float64) {
	c.ZoomToPoint(c.Center(), scale)
}

// ZoomIn steps to the next larger ladder level.
func (c *Controller) ZoomIn() {
	for _, level := range Ladder {
		if level > c.t.Scale+epsilon {
			c.ZoomToScale(level)
			return
		}
	}
}

// ZoomOut steps to the next smaller ladder level.
func (c *Controller) ZoomOut() {
	for i := len(Ladder) - 1; i >= 0; i-- {
		if Ladder[i] < c.t.Scale-epsilon {
			c.ZoomToScale(Ladder[i])
			return
		}
	}
}

// ZoomToFit resets the view to scale 1 at the origin.
func (c *Controller) ZoomToFit() {
	c.set(Identity)
}

// Pan shifts the view by a screen-space delta.
func (c *Controller) Pan(dx, dy float64) {
	if !geometry.IsFinite(dx) || !geometry.IsFinite(dy) {
		c.log.Warn("Viewport: ignoring non-finite pan delta")
		return
	}
	c.set(Transform{X: c.t.X + dx, Y: c.t.Y + dy, Scale: c.t.Scale})
}

// Restore replaces the transform wholesale, e.g. from a saved view.
func (c *Controller) Restore(t Transform) {
	t.Scale = Clamp(t.Scale)
	c.set(t)
}

func (c *Controller) set(t Transform) {
	c.t = t
	for _, l := range c.listeners {
		l.ViewportChanged(t)
	}
}
