package drawing

import (
	"thumbio/internal/domain"
	"thumbio/internal/geometry"
)

// EraserRadius is the reach of the eraser for a brush of the given width.
func EraserRadius(brushWidth float64) float64 {
	if brushWidth <= 0 {
		brushWidth = DefaultStyle.Width
	}
	return 2 * brushWidth
}

// Erase returns the drawings that have no point within radius of p, and the
// ids of the ones that were removed. The input slice is not modified.
func Erase(drawings []domain.Drawing, p geometry.Point, radius float64) ([]domain.Drawing, []string) {
	kept := make([]domain.Drawing, 0, len(drawings))
	var removed []string
	for _, d := range drawings {
		if hit(d, p, radius) {
			removed = append(removed, d.ID)
			continue
		}
		kept = append(kept, d)
	}
	return kept, removed
}

func hit(d domain.Drawing, p geometry.Point, radius float64) bool {
	for _, q := range d.Points {
		if geometry.Distance(p, q) <= radius {
			return true
		}
	}
	return false
}

// EraseGesture batches the removals of one eraser drag so the caller can
// record a single history entry at the end.
type EraseGesture struct {
	active  bool
	radius  float64
	removed int
}

// Begin starts an erase drag with the eraser sized for brushWidth.
func (g *EraseGesture) Begin(brushWidth float64) {
	g.active = true
	g.radius = EraserRadius(brushWidth)
	g.removed = 0
}

// Active reports whether an erase drag is running.
func (g *EraseGesture) Active() bool { return g.active }

// At erases around p and returns the surviving drawings.
func (g *EraseGesture) At(drawings []domain.Drawing, p geometry.Point) []domain.Drawing {
	if !g.active {
		return drawings
	}
	kept, removed := Erase(drawings, p, g.radius)
	g.removed += len(removed)
	return kept
}

// Finish ends the drag and reports how many drawings it removed.
func (g *EraseGesture) Finish() int {
	n := g.removed
	g.active = false
	g.removed = 0
	return n
}
