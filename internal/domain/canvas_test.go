package domain_test

import (
	"math"
	"testing"

	"thumbio/internal/domain"
	"thumbio/internal/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasDocument_CloneIsDeep(t *testing.T) {
	doc := domain.CanvasDocument{
		Drawings: []domain.Drawing{{ID: "d", Points: []geometry.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}},
		Labels:   []domain.Label{{ID: "l", Text: "a"}},
	}
	clone := doc.Clone()
	clone.Drawings[0].Points[0].X = 99
	clone.Labels[0].Text = "b"

	assert.Equal(t, 1.0, doc.Drawings[0].Points[0].X)
	assert.Equal(t, "a", doc.Labels[0].Text)
}

func TestCanvas_DocumentColumn(t *testing.T) {
	var c domain.Canvas
	doc, err := c.ParseDocument()
	require.NoError(t, err)
	assert.Empty(t, doc.Thumbnails)

	require.NoError(t, c.SetDocument(domain.CanvasDocument{Comments: []domain.Comment{{ID: "c", Text: "hi"}}}))
	doc, err = c.ParseDocument()
	require.NoError(t, err)
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "hi", doc.Comments[0].Text)

	c.Document = "{broken"
	_, err = c.ParseDocument()
	assert.Error(t, err)
}

func TestCanvasDocument_Validate(t *testing.T) {
	line := []geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}
	cases := []struct {
		name string
		doc  domain.CanvasDocument
		ok   bool
	}{
		{"empty", domain.CanvasDocument{}, true},
		{"valid", domain.CanvasDocument{
			Thumbnails: []domain.Thumbnail{{ID: "t", X: 1}},
			Labels:     []domain.Label{{ID: "t", Text: "same id, other kind"}},
			Drawings:   []domain.Drawing{{ID: "d", Points: line}},
		}, true},
		{"missing id", domain.CanvasDocument{Comments: []domain.Comment{{Text: "x"}}}, false},
		{"duplicate id", domain.CanvasDocument{Thumbnails: []domain.Thumbnail{{ID: "a"}, {ID: "a"}}}, false},
		{"infinite coordinate", domain.CanvasDocument{Labels: []domain.Label{{ID: "l", X: math.Inf(1)}}}, false},
		{"nan point", domain.CanvasDocument{Drawings: []domain.Drawing{{ID: "d", Points: []geometry.Point{{X: math.NaN()}, {X: 1}}}}}, false},
		{"single point drawing", domain.CanvasDocument{Drawings: []domain.Drawing{{ID: "d", Points: line[:1]}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.doc.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidDocument)
			}
		})
	}
}
