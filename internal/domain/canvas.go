package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thumbio/internal/geometry"
)

// ErrInvalidDocument wraps every CanvasDocument validation failure.
var ErrInvalidDocument = errors.New("invalid canvas document")

// Canvas is the persisted row of one collaborative thumbnail canvas.
type Canvas struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`         // uuid
	Name      string    `gorm:"size:191;not null" json:"name"`        // display name
	Document  string    `gorm:"type:longtext;not null" json:"-"`      // CanvasDocument as JSON
	Version   uint      `gorm:"not null;default:0" json:"version"`    // bumped on every save (last writer wins)
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updatedAt"`
}

// CanvasDocument is everything a canvas shows. It is also the unit that the
// undo/redo history snapshots.
type CanvasDocument struct {
	Thumbnails []Thumbnail `json:"thumbnails"`
	Labels     []Label     `json:"labels"`
	Drawings   []Drawing   `json:"drawings"`
	Comments   []Comment   `json:"comments"`
}

// Clone returns a deep copy of d.
func (d CanvasDocument) Clone() CanvasDocument {
	out := CanvasDocument{
		Thumbnails: append([]Thumbnail(nil), d.Thumbnails...),
		Labels:     append([]Label(nil), d.Labels...),
		Comments:   append([]Comment(nil), d.Comments...),
	}
	if d.Drawings != nil {
		out.Drawings = make([]Drawing, len(d.Drawings))
		for i, dr := range d.Drawings {
			out.Drawings[i] = dr.Clone()
		}
	}
	return out
}

// ParseDocument decodes the Document column. An empty column is an empty canvas.
func (c *Canvas) ParseDocument() (CanvasDocument, error) {
	var doc CanvasDocument
	if c.Document == "" || c.Document == "null" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(c.Document), &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal canvas document: %w", err)
	}
	return doc, nil
}

// SetDocument encodes doc into the Document column.
func (c *Canvas) SetDocument(doc CanvasDocument) error {
	bytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal canvas document: %w", err)
	}
	c.Document = string(bytes)
	return nil
}

// Validate checks that ids are present and unique per kind and that every
// coordinate is finite.
func (d CanvasDocument) Validate() error {
	seen := make(map[string]struct{})
	check := func(kind, id string, coords ...float64) error {
		if id == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidDocument, kind)
		}
		key := kind + "/" + id
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidDocument, kind, id)
		}
		seen[key] = struct{}{}
		for _, v := range coords {
			if !geometry.IsFinite(v) {
				return fmt.Errorf("%w: %s %q has a non-finite coordinate", ErrInvalidDocument, kind, id)
			}
		}
		return nil
	}

	for _, t := range d.Thumbnails {
		if err := check("thumbnail", t.ID, t.X, t.Y); err != nil {
			return err
		}
	}
	for _, l := range d.Labels {
		if err := check("label", l.ID, l.X, l.Y, l.Width, l.Height, l.FontSize); err != nil {
			return err
		}
	}
	for _, c := range d.Comments {
		if err := check("comment", c.ID, c.X, c.Y); err != nil {
			return err
		}
	}
	for _, dr := range d.Drawings {
		coords := make([]float64, 0, 2*len(dr.Points)+1)
		for _, p := range dr.Points {
			coords = append(coords, p.X, p.Y)
		}
		coords = append(coords, dr.Style.Width)
		if err := check("drawing", dr.ID, coords...); err != nil {
			return err
		}
		if len(dr.Points) < 2 {
			return fmt.Errorf("%w: drawing %q has fewer than two points", ErrInvalidDocument, dr.ID)
		}
	}
	return nil
}
