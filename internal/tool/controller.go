package tool

import (
	"thumbio/internal/geometry"

	"github.com/sirupsen/logrus"
)

// Modifiers are the keyboard modifiers held during a pointer event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Meta  bool
	Alt   bool
}

// Toggle reports whether the platform toggle modifier (Ctrl or Cmd) is held.
func (m Modifiers) Toggle() bool { return m.Ctrl || m.Meta }

// PointerEvent is one pointer sample in screen space.
type PointerEvent struct {
	Screen    geometry.Point
	Modifiers Modifiers
}

// InputHandler is implemented by each mode's gesture logic. The controller
// calls it directly; handlers hold no references back into the controller.
type InputHandler interface {
	PointerDown(ev PointerEvent)
	PointerMove(ev PointerEvent)
	PointerUp(ev PointerEvent)
	// Cancel aborts the gesture in progress without committing it.
	Cancel()
}

// Interactivity receives whether individual canvas items may capture pointer
// events. It is told false whenever drags must reach the canvas itself.
type Interactivity interface {
	SetItemsInteractive(interactive bool)
}

// Controller is the tool-mode state machine.
type Controller struct {
	mode         Mode
	spacePanning bool
	behavior     Behavior

	handlers map[Mode]InputHandler
	pan      InputHandler

	pointerDown bool
	last        PointerEvent
	active      InputHandler
	activeMode  Mode
	activeIsPan bool
	suspended   InputHandler // gesture paused while space-panning
	suspMode    Mode

	sink      Interactivity
	listeners []func(Behavior)
	log       *logrus.Entry
}

// NewController builds a controller starting in selection mode. pan handles
// both hand mode and the space-panning override.
func NewController(handlers map[Mode]InputHandler, pan InputHandler, sink Interactivity) *Controller {
	if pan == nil {
		panic("pan handler cannot be nil for tool Controller")
	}
	c := &Controller{
		mode:     ModeSelection,
		handlers: handlers,
		pan:      pan,
		sink:     sink,
		log:      logrus.WithField("component", "tool_controller"),
	}
	if c.handlers == nil {
		c.handlers = map[Mode]InputHandler{}
	}
	c.behavior = Resolve(c.mode, false)
	if c.sink != nil {
		c.sink.SetItemsInteractive(c.behavior.ThumbnailsInteractive)
	}
	return c
}

// Mode returns the persisted mode.
func (c *Controller) Mode() Mode { return c.mode }

// SpacePanning reports whether the pan override is held.
func (c *Controller) SpacePanning() bool { return c.spacePanning }

// Behavior returns the currently resolved behavior.
func (c *Controller) Behavior() Behavior { return c.behavior }

// OnBehaviorChange registers fn to run after every resolved behavior change.
func (c *Controller) OnBehaviorChange(fn func(Behavior)) {
	c.listeners = append(c.listeners, fn)
}

// SetMode switches the persisted mode. A real change aborts any gesture in
// progress, including one paused by space-panning.
func (c *Controller) SetMode(mode Mode) {
	if !mode.Valid() {
		c.log.Warnf("Tool: unknown mode %q, falling back to selection", mode)
		mode = ModeSelection
	}
	if mode == c.mode {
		return
	}
	c.log.WithFields(logrus.Fields{"from": c.mode, "to": mode}).Debug("Tool: mode changed")

	if c.suspended != nil {
		c.suspended.Cancel()
		c.suspended = nil
	}
	if c.active != nil && !(c.activeIsPan && c.spacePanning) {
		c.active.Cancel()
		c.active = nil
		c.activeIsPan = false
	}
	c.mode = mode
	c.refresh()
}

// SetSpacePanning toggles the transient pan override. The persisted mode is
// untouched; a selection rectangle is cancelled, other gestures are paused.
func (c *Controller) SetSpacePanning(held bool) {
	if held == c.spacePanning {
		return
	}
	c.spacePanning = held

	if held {
		if c.active != nil && !c.activeIsPan {
			if Resolve(c.activeMode, false).CanSelect {
				c.active.Cancel()
			} else {
				c.suspended, c.suspMode = c.active, c.activeMode
			}
			c.active = nil
		}
		if c.pointerDown && c.active == nil {
			c.startGesture(c.pan, c.mode, true, c.last)
		}
	} else if c.activeIsPan && c.mode != ModeHand {
		c.pan.PointerUp(c.last)
		c.active = nil
		c.activeIsPan = false
		if c.suspended != nil && c.pointerDown {
			c.active, c.activeMode = c.suspended, c.suspMode
		}
		c.suspended = nil
	}
	c.refresh()
}

// PointerDown starts a gesture with the handler of the resolved behavior.
func (c *Controller) PointerDown(ev PointerEvent) {
	c.pointerDown = true
	c.last = ev
	if c.behavior.CanPan {
		c.startGesture(c.pan, c.mode, true, ev)
		return
	}
	h := c.handlerFor(c.mode)
	if h == nil {
		return
	}
	c.startGesture(h, c.mode, false, ev)
}

// PointerMove feeds the gesture in progress, if any.
func (c *Controller) PointerMove(ev PointerEvent) {
	c.last = ev
	if c.active != nil {
		c.active.PointerMove(ev)
	}
}

// PointerUp finishes the gesture in progress and any paused one.
func (c *Controller) PointerUp(ev PointerEvent) {
	c.last = ev
	c.pointerDown = false
	if c.active != nil {
		c.active.PointerUp(ev)
		c.active = nil
		c.activeIsPan = false
	}
	if c.suspended != nil {
		c.suspended.PointerUp(ev)
		c.suspended = nil
	}
}

// CancelGesture aborts whatever gesture is running.
func (c *Controller) CancelGesture() {
	if c.active != nil {
		c.active.Cancel()
		c.active = nil
		c.activeIsPan = false
	}
	if c.suspended != nil {
		c.suspended.Cancel()
		c.suspended = nil
	}
	c.pointerDown = false
}

// Gesturing reports whether a pointer gesture is in progress.
func (c *Controller) Gesturing() bool { return c.active != nil || c.suspended != nil }

func (c *Controller) startGesture(h InputHandler, mode Mode, isPan bool, ev PointerEvent) {
	c.active, c.activeMode, c.activeIsPan = h, mode, isPan
	h.PointerDown(ev)
}

func (c *Controller) handlerFor(mode Mode) InputHandler {
	if h, ok := c.handlers[mode]; ok {
		return h
	}
	return c.handlers[ModeSelection]
}

func (c *Controller) refresh() {
	next := Resolve(c.mode, c.spacePanning)
	if next == c.behavior {
		return
	}
	prev := c.behavior
	c.behavior = next

	if prev.CanSelect && !next.CanSelect && c.active != nil && !c.activeIsPan && Resolve(c.activeMode, false).CanSelect {
		c.active.Cancel()
		c.active = nil
	}
	if c.sink != nil && prev.ThumbnailsInteractive != next.ThumbnailsInteractive {
		c.sink.SetItemsInteractive(next.ThumbnailsInteractive)
	}
	for _, fn := range c.listeners {
		fn(next)
	}
}
