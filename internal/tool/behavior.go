// Package tool holds the input modes of the canvas and the state machine that
// routes pointer gestures to the handler of the active mode.
package tool

// Mode is the persisted, mutually exclusive input mode.
type Mode string

const (
	ModeSelection Mode = "selection"
	ModeHand      Mode = "hand"
	ModeDrawing   Mode = "drawing"
	ModeComment   Mode = "comment"
	ModeLabel     Mode = "label"
)

// Modes lists every known mode in toolbar order.
var Modes = []Mode{ModeSelection, ModeHand, ModeDrawing, ModeComment, ModeLabel}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := behaviors[m]
	return ok
}

// Behavior describes what the canvas does while a mode is resolved.
type Behavior struct {
	Cursor                string `json:"cursor"`
	ThumbnailsInteractive bool   `json:"thumbnailsInteractive"`
	CanSelect             bool   `json:"canSelect"`
	CanPan                bool   `json:"canPan"`
	CanDraw               bool   `json:"canDraw"`
	SuppressDefaultEvents bool   `json:"suppressDefaultEvents"`
}

var behaviors = map[Mode]Behavior{
	ModeSelection: {Cursor: "default", ThumbnailsInteractive: true, CanSelect: true},
	ModeHand:      {Cursor: "grab", CanPan: true, SuppressDefaultEvents: true},
	ModeDrawing:   {Cursor: "crosshair", CanDraw: true, SuppressDefaultEvents: true},
	ModeComment:   {Cursor: "cell", SuppressDefaultEvents: true},
	ModeLabel:     {Cursor: "text", SuppressDefaultEvents: true},
}

// PanOverride is resolved whenever space is held, whatever the mode.
var PanOverride = Behavior{Cursor: "grabbing", CanPan: true, SuppressDefaultEvents: true}

// Resolve maps the nominal mode and the space-panning flag to a behavior.
// Unknown modes resolve to the selection behavior.
func Resolve(mode Mode, spacePanning bool) Behavior {
	if spacePanning {
		return PanOverride
	}
	if b, ok := behaviors[mode]; ok {
		return b
	}
	return behaviors[ModeSelection]
}
