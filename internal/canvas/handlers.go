package canvas

import (
	"thumbio/internal/domain"
	"thumbio/internal/drawing"
	"thumbio/internal/geometry"
	"thumbio/internal/selection"
	"thumbio/internal/tool"
)

// clickSlop is how far, in screen pixels, a press may travel and still count
// as a click for annotation placement.
const clickSlop = 5

// selectHandler drives selection mode: rectangle selection on empty canvas,
// click and drag-move on items.
type selectHandler struct {
	s       *Session
	gesture *selection.Gesture

	moving      bool
	moved       bool
	origin      geometry.Point
	startThumbs map[string]geometry.Point
	startLabels map[string]geometry.Point
}

func (h *selectHandler) PointerDown(ev tool.PointerEvent) {
	w := h.s.view.ScreenToWorld(ev.Screen)
	if h.s.itemsInteractive {
		if item, ok := h.s.itemAt(w); ok {
			h.press(item, w, selection.ModifierFor(ev.Modifiers.Shift, ev.Modifiers.Toggle()))
			return
		}
	}
	h.gesture.Begin(w)
}

func (h *selectHandler) press(item selection.Candidate, w geometry.Point, mod selection.Modifier) {
	sel := h.s.selected.Clone()
	set := sel.Thumbnails
	if item.Kind == selection.KindLabel {
		set = sel.Labels
	}
	switch mod {
	case selection.ModifierToggle:
		if set.Has(item.ID) {
			delete(set, item.ID)
		} else {
			set[item.ID] = struct{}{}
		}
		h.s.selected = sel
		return
	case selection.ModifierShift:
		set[item.ID] = struct{}{}
	default:
		if !set.Has(item.ID) {
			sel = selection.Empty()
			if item.Kind == selection.KindLabel {
				sel.Labels[item.ID] = struct{}{}
			} else {
				sel.Thumbnails[item.ID] = struct{}{}
			}
		}
	}
	h.s.selected = sel

	h.moving, h.moved = true, false
	h.origin = w
	h.startThumbs = make(map[string]geometry.Point)
	for _, t := range h.s.thumbs.Thumbnails() {
		if sel.Thumbnails.Has(t.ID) {
			h.startThumbs[t.ID] = t.Position()
		}
	}
	h.startLabels = make(map[string]geometry.Point)
	for _, l := range h.s.labels.Labels() {
		if sel.Labels.Has(l.ID) {
			h.startLabels[l.ID] = l.Position()
		}
	}
}

func (h *selectHandler) PointerMove(ev tool.PointerEvent) {
	w := h.s.view.ScreenToWorld(ev.Screen)
	if h.moving {
		h.moveBy(w.Sub(h.origin))
		return
	}
	h.gesture.Update(w, h.s.candidates())
}

func (h *selectHandler) moveBy(delta geometry.Point) {
	if delta.X == 0 && delta.Y == 0 && !h.moved {
		return
	}
	h.moved = true
	h.s.thumbs.SetPositions(offset(h.startThumbs, delta))
	h.s.labels.SetPositions(offset(h.startLabels, delta))
}

func (h *selectHandler) PointerUp(ev tool.PointerEvent) {
	w := h.s.view.ScreenToWorld(ev.Screen)
	if h.moving {
		h.moveBy(w.Sub(h.origin))
		if h.moved {
			h.s.record("move items")
		}
		h.endMove()
		return
	}
	if !h.gesture.Active() {
		return
	}
	mod := selection.ModifierFor(ev.Modifiers.Shift, ev.Modifiers.Toggle())
	h.s.selected = h.gesture.Commit(w, h.s.candidates(), h.s.selected, mod)
}

func (h *selectHandler) Cancel() {
	if h.moving && h.moved {
		h.s.thumbs.SetPositions(h.startThumbs)
		h.s.labels.SetPositions(h.startLabels)
	}
	h.endMove()
	h.gesture.Cancel()
}

func (h *selectHandler) endMove() {
	h.moving, h.moved = false, false
	h.startThumbs, h.startLabels = nil, nil
}

func offset(start map[string]geometry.Point, delta geometry.Point) map[string]geometry.Point {
	out := make(map[string]geometry.Point, len(start))
	for id, p := range start {
		out[id] = p.Add(delta)
	}
	return out
}

// panHandler serves hand mode and the space-bar override.
type panHandler struct {
	s    *Session
	last geometry.Point
}

func (h *panHandler) PointerDown(ev tool.PointerEvent) { h.last = ev.Screen }

func (h *panHandler) PointerMove(ev tool.PointerEvent) {
	d := ev.Screen.Sub(h.last)
	h.last = ev.Screen
	if d.X != 0 || d.Y != 0 {
		h.s.view.Pan(d.X, d.Y)
	}
}

func (h *panHandler) PointerUp(ev tool.PointerEvent) { h.PointerMove(ev) }

func (h *panHandler) Cancel() {}

// drawHandler paints strokes, or erases them when the eraser is on.
type drawHandler struct {
	s      *Session
	stroke *drawing.Stroke
	erase  drawing.EraseGesture
	before []domain.Drawing
}

func (h *drawHandler) PointerDown(ev tool.PointerEvent) {
	w := h.s.view.ScreenToWorld(ev.Screen)
	if h.s.eraser {
		h.before = h.s.Drawings()
		h.erase.Begin(h.s.brush.Width)
		h.s.drawings = h.erase.At(h.s.drawings, w)
		return
	}
	h.stroke.Begin(w, h.s.brush, h.s.layer)
}

func (h *drawHandler) PointerMove(ev tool.PointerEvent) {
	w := h.s.view.ScreenToWorld(ev.Screen)
	if h.erase.Active() {
		h.s.drawings = h.erase.At(h.s.drawings, w)
		return
	}
	h.stroke.Add(w, h.s.view.Scale())
}

func (h *drawHandler) PointerUp(ev tool.PointerEvent) {
	h.PointerMove(ev)
	if h.erase.Active() {
		if h.erase.Finish() > 0 {
			h.s.record("erase")
		}
		h.before = nil
		return
	}
	d, ok := h.stroke.Finish()
	if !ok {
		return
	}
	h.s.drawings = append(h.s.drawings, d)
	h.s.record("draw")
}

func (h *drawHandler) Cancel() {
	h.stroke.Cancel()
	if h.erase.Active() {
		h.erase.Finish()
		h.s.drawings = h.before
		h.before = nil
	}
}

// placeHandler drops an annotation where the user clicks.
type placeHandler struct {
	s       *Session
	place   func(at geometry.Point)
	pressed bool
	down    geometry.Point
}

func (h *placeHandler) PointerDown(ev tool.PointerEvent) {
	h.pressed = true
	h.down = ev.Screen
}

func (h *placeHandler) PointerMove(tool.PointerEvent) {}

func (h *placeHandler) PointerUp(ev tool.PointerEvent) {
	if !h.pressed {
		return
	}
	h.pressed = false
	if geometry.Distance(h.down, ev.Screen) > clickSlop {
		return
	}
	h.place(h.s.view.ScreenToWorld(ev.Screen))
}

func (h *placeHandler) Cancel() { h.pressed = false }
