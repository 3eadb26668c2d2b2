package viewport

import "math"

// DefaultGridSpacing is the gap between grid lines in canvas units.
const DefaultGridSpacing = 20

// GridOverlay keeps a background grid aligned with the viewport. It is
// updated as a Listener.
type GridOverlay struct {
	base    float64
	spacing float64
	offsetX float64
	offsetY float64
}

// NewGridOverlay returns a grid with base spacing in canvas units, projected
// for the identity transform.
func NewGridOverlay(base float64) *GridOverlay {
	if base <= 0 {
		base = DefaultGridSpacing
	}
	g := &GridOverlay{base: base}
	g.ViewportChanged(Identity)
	return g
}

// ViewportChanged reprojects spacing and offset for t.
func (g *GridOverlay) ViewportChanged(t Transform) {
	g.spacing = g.base * t.Scale
	g.offsetX = positiveMod(t.X, g.spacing)
	g.offsetY = positiveMod(t.Y, g.spacing)
}

// Spacing is the on-screen distance between grid lines.
func (g *GridOverlay) Spacing() float64 { return g.spacing }

// Offset is the screen position of the first grid line on each axis.
func (g *GridOverlay) Offset() (x, y float64) { return g.offsetX, g.offsetY }

func positiveMod(v, m float64) float64 {
	if m <= 0 {
		return 0
	}
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}
