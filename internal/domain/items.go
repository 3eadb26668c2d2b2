package domain

import (
	"time"
	"unicode/utf8"

	"thumbio/internal/geometry"
)

// Fixed hit box of a thumbnail in canvas units (16:9).
const (
	ThumbnailWidth  = 320
	ThumbnailHeight = 180
)

// Default label metrics used when a label carries no rendered size.
const (
	DefaultLabelFontSize = 16
	labelPadding         = 8
)

// Thumbnail is one video thumbnail placed on the canvas.
type Thumbnail struct {
	ID       string  `json:"id"`
	VideoID  string  `json:"videoId,omitempty"`
	Title    string  `json:"title,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Bounds is the thumbnail's hit box.
func (t Thumbnail) Bounds() geometry.Rect {
	return geometry.Rect{X: t.X, Y: t.Y, Width: ThumbnailWidth, Height: ThumbnailHeight}
}

// Position returns the top-left corner.
func (t Thumbnail) Position() geometry.Point { return geometry.Point{X: t.X, Y: t.Y} }

// Label is a free text annotation.
type Label struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// Bounds is the label's hit area. The renderer reports Width/Height once it
// has laid the text out; until then the size is estimated from the text.
func (l Label) Bounds() geometry.Rect {
	w, h := l.Width, l.Height
	if w <= 0 || h <= 0 {
		fs := l.FontSize
		if fs <= 0 {
			fs = DefaultLabelFontSize
		}
		runes := utf8.RuneCountInString(l.Text)
		if runes == 0 {
			runes = 1
		}
		w = float64(runes)*fs*0.6 + 2*labelPadding
		h = fs*1.2 + 2*labelPadding
	}
	return geometry.Rect{X: l.X, Y: l.Y, Width: w, Height: h}
}

// Position returns the top-left corner.
func (l Label) Position() geometry.Point { return geometry.Point{X: l.X, Y: l.Y} }

// StrokeStyle describes how a freehand stroke is painted.
type StrokeStyle struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Alpha float64 `json:"alpha"`
}

// Drawing is a finalised freehand stroke.
type Drawing struct {
	ID        string           `json:"id"`
	Points    []geometry.Point `json:"points"`
	Style     StrokeStyle      `json:"style"`
	Layer     int              `json:"layer"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Clone copies the point slice as well.
func (d Drawing) Clone() Drawing {
	d.Points = append([]geometry.Point(nil), d.Points...)
	return d
}

// Comment is a pinned note placed in comment mode.
type Comment struct {
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
