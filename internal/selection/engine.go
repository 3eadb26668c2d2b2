package selection

import (
	"time"

	"thumbio/internal/geometry"
)

// PreviewInterval bounds live preview recomputation to roughly 60 fps.
const PreviewInterval = 16 * time.Millisecond

// Kind tells which selection set a candidate belongs to.
type Kind int

const (
	KindThumbnail Kind = iota
	KindLabel
)

// Candidate is an item that a selection rectangle can hit.
type Candidate struct {
	ID     string
	Kind   Kind
	Bounds geometry.Rect
}

// Modifier is the key state that decides how hits combine with the current
// selection.
type Modifier int

const (
	ModifierNone   Modifier = iota // replace
	ModifierShift                  // union
	ModifierToggle                 // Ctrl/Cmd: symmetric toggle
)

// ModifierFor maps held keys to a modifier. Toggle wins over shift.
func ModifierFor(shift, toggle bool) Modifier {
	switch {
	case toggle:
		return ModifierToggle
	case shift:
		return ModifierShift
	default:
		return ModifierNone
	}
}

// Intersecting returns the candidates overlapping rect.
func Intersecting(rect geometry.Rect, items []Candidate) Selection {
	hits := Empty()
	r := rect.Normalize()
	for _, it := range items {
		if !r.Intersects(it.Bounds.Normalize()) {
			continue
		}
		switch it.Kind {
		case KindLabel:
			hits.Labels[it.ID] = struct{}{}
		default:
			hits.Thumbnails[it.ID] = struct{}{}
		}
	}
	return hits
}

// Apply combines hits with current under mod. current is never mutated.
func Apply(current, hits Set, mod Modifier) Set {
	switch mod {
	case ModifierShift:
		out := current.Clone()
		for id := range hits {
			out[id] = struct{}{}
		}
		return out
	case ModifierToggle:
		out := current.Clone()
		for id := range hits {
			if out.Has(id) {
				delete(out, id)
			} else {
				out[id] = struct{}{}
			}
		}
		return out
	default:
		return hits.Clone()
	}
}

// ApplySelection applies mod to both sets.
func ApplySelection(current, hits Selection, mod Modifier) Selection {
	return Selection{
		Thumbnails: Apply(current.Thumbnails, hits.Thumbnails, mod),
		Labels:     Apply(current.Labels, hits.Labels, mod),
	}
}

// Gesture tracks one rectangle-selection drag. It never touches the items,
// only which ids are reported as hit.
type Gesture struct {
	active      bool
	start, end  geometry.Point
	preview     Selection
	lastPreview time.Time
	interval    time.Duration
	now         func() time.Time
}

// NewGesture returns an idle gesture. now may be nil.
func NewGesture(now func() time.Time) *Gesture {
	if now == nil {
		now = time.Now
	}
	return &Gesture{interval: PreviewInterval, now: now, preview: Empty()}
}

// Begin starts a drag at p (canvas space).
func (g *Gesture) Begin(p geometry.Point) {
	g.active = true
	g.start, g.end = p, p
	g.preview = Empty()
	g.lastPreview = time.Time{}
}

// Active reports whether a drag is in progress.
func (g *Gesture) Active() bool { return g.active }

// Rect returns the current drag rectangle.
func (g *Gesture) Rect() (geometry.Rect, bool) {
	return geometry.RectFromCorners(g.start, g.end), g.active
}

// Update moves the free corner to p and recomputes the preview when the
// throttle allows. It reports whether the preview was recomputed.
func (g *Gesture) Update(p geometry.Point, items []Candidate) bool {
	if !g.active {
		return false
	}
	g.end = p
	now := g.now()
	if !g.lastPreview.IsZero() && now.Sub(g.lastPreview) < g.interval {
		return false
	}
	g.lastPreview = now
	g.preview = Intersecting(geometry.RectFromCorners(g.start, g.end), items)
	return true
}

// Preview returns the last computed preview hits.
func (g *Gesture) Preview() Selection { return g.preview.Clone() }

// Commit ends the drag at p and returns the resulting selection.
func (g *Gesture) Commit(p geometry.Point, items []Candidate, current Selection, mod Modifier) Selection {
	g.end = p
	hits := Intersecting(geometry.RectFromCorners(g.start, g.end), items)
	g.reset()
	return ApplySelection(current, hits, mod)
}

// Cancel drops the drag without producing a selection.
func (g *Gesture) Cancel() { g.reset() }

func (g *Gesture) reset() {
	g.active = false
	g.preview = Empty()
	g.lastPreview = time.Time{}
}
