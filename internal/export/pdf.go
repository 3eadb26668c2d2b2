// Package export renders canvas documents to PDF.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"thumbio/internal/domain"
	"thumbio/internal/geometry"
)

// Page layout in millimetres (A4 landscape).
const (
	pageWidth  = 297.0
	pageHeight = 210.0
	margin     = 10.0
	headerH    = 12.0
	maxScale   = 0.5 // mm per canvas unit
)

// WritePDF draws doc on a single page, scaled to fit, and writes it to w.
func WritePDF(w io.Writer, title string, doc domain.CanvasDocument) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("thumbio", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(20, 20, 20)
	pdf.Text(margin, margin+6, latin1(pdf, title))

	bounds, ok := contentBounds(doc)
	if ok {
		drawDocument(pdf, doc, newProjection(bounds))
	} else {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Text(margin, margin+headerH+6, "Empty canvas")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

type projection struct {
	origin geometry.Point
	scale  float64
	offset geometry.Point
}

func newProjection(b geometry.Bounds) projection {
	availW := pageWidth - 2*margin
	availH := pageHeight - 2*margin - headerH
	w := math.Max(b.Right-b.Left, 1)
	h := math.Max(b.Bottom-b.Top, 1)
	scale := math.Min(maxScale, math.Min(availW/w, availH/h))
	return projection{
		origin: geometry.Point{X: b.Left, Y: b.Top},
		scale:  scale,
		offset: geometry.Point{X: margin, Y: margin + headerH},
	}
}

func (p projection) point(q geometry.Point) (float64, float64) {
	r := q.Sub(p.origin).Scale(p.scale).Add(p.offset)
	return r.X, r.Y
}

func drawDocument(pdf *gofpdf.Fpdf, doc domain.CanvasDocument, proj projection) {
	pdf.SetLineWidth(0.3)
	pdf.SetFont("Helvetica", "", 7)
	for _, t := range doc.Thumbnails {
		x, y := proj.point(t.Position())
		pdf.SetDrawColor(90, 90, 90)
		pdf.SetFillColor(235, 235, 235)
		pdf.Rect(x, y, domain.ThumbnailWidth*proj.scale, domain.ThumbnailHeight*proj.scale, "FD")
		if t.Title != "" {
			pdf.SetTextColor(40, 40, 40)
			pdf.Text(x+1, y+domain.ThumbnailHeight*proj.scale+3, latin1(pdf, t.Title))
		}
	}

	for _, d := range doc.Drawings {
		if len(d.Points) < 2 {
			continue
		}
		r, g, b := parseHex(d.Style.Color)
		pdf.SetDrawColor(r, g, b)
		pdf.SetAlpha(alpha(d.Style.Alpha), "Normal")
		pdf.SetLineWidth(math.Max(d.Style.Width*proj.scale, 0.1))
		pdf.SetLineCapStyle("round")
		pdf.SetLineJoinStyle("round")
		for i := 1; i < len(d.Points); i++ {
			x1, y1 := proj.point(d.Points[i-1])
			x2, y2 := proj.point(d.Points[i])
			pdf.Line(x1, y1, x2, y2)
		}
		pdf.SetAlpha(1, "Normal")
	}

	for _, l := range doc.Labels {
		x, y := proj.point(l.Position())
		fs := l.FontSize
		if fs <= 0 {
			fs = domain.DefaultLabelFontSize
		}
		pt := math.Max(fs*proj.scale*72/25.4, 4)
		r, g, b := parseHex(l.Color)
		pdf.SetFont("Helvetica", "", pt)
		pdf.SetTextColor(r, g, b)
		pdf.Text(x, y+pt*25.4/72, latin1(pdf, l.Text))
	}

	pdf.SetFont("Helvetica", "", 7)
	for _, c := range doc.Comments {
		x, y := proj.point(geometry.Point{X: c.X, Y: c.Y})
		pdf.SetFillColor(250, 204, 21)
		pdf.SetDrawColor(161, 98, 7)
		pdf.Circle(x, y, 1.5, "FD")
		pdf.SetTextColor(60, 60, 60)
		text := c.Text
		if c.Author != "" {
			text = c.Author + ": " + text
		}
		pdf.Text(x+2.5, y+1, latin1(pdf, text))
	}
}

// contentBounds is the union of everything drawn on the canvas.
func contentBounds(doc domain.CanvasDocument) (geometry.Bounds, bool) {
	var b geometry.Bounds
	found := false
	add := func(r geometry.Rect) {
		n := r.Normalize()
		if !found {
			b, found = n, true
			return
		}
		b.Left = math.Min(b.Left, n.Left)
		b.Top = math.Min(b.Top, n.Top)
		b.Right = math.Max(b.Right, n.Right)
		b.Bottom = math.Max(b.Bottom, n.Bottom)
	}
	for _, t := range doc.Thumbnails {
		add(t.Bounds())
	}
	for _, l := range doc.Labels {
		add(l.Bounds())
	}
	for _, d := range doc.Drawings {
		for _, p := range d.Points {
			add(geometry.Rect{X: p.X, Y: p.Y})
		}
	}
	for _, c := range doc.Comments {
		add(geometry.Rect{X: c.X, Y: c.Y})
	}
	return b, found
}

// parseHex reads #rrggbb or #rgb; anything else is near-black.
func parseHex(s string) (int, int, int) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 30, 30, 30
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 30, 30, 30
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func alpha(a float64) float64 {
	if a <= 0 || a > 1 || math.IsNaN(a) {
		return 1
	}
	return a
}

// latin1 converts UTF-8 for the core fonts, which only cover cp1252.
func latin1(pdf *gofpdf.Fpdf, s string) string {
	return pdf.UnicodeTranslatorFromDescriptor("")(s)
}
