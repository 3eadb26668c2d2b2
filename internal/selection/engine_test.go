package selection_test

import (
	"testing"
	"time"

	"thumbio/internal/geometry"
	"thumbio/internal/selection"

	"github.com/stretchr/testify/assert"
)

func candidates() []selection.Candidate {
	return []selection.Candidate{
		{ID: "t1", Kind: selection.KindThumbnail, Bounds: geometry.Rect{X: 0, Y: 0, Width: 100, Height: 80}},
		{ID: "t2", Kind: selection.KindThumbnail, Bounds: geometry.Rect{X: 200, Y: 0, Width: 100, Height: 80}},
		{ID: "l1", Kind: selection.KindLabel, Bounds: geometry.Rect{X: 0, Y: 200, Width: 60, Height: 20}},
	}
}

func TestIntersecting_DragFromBottomRight(t *testing.T) {
	rect := geometry.RectFromCorners(geometry.Point{X: 50, Y: 50}, geometry.Point{X: 10, Y: 10})
	hits := selection.Intersecting(rect, candidates())
	assert.Equal(t, []string{"t1"}, hits.Thumbnails.IDs())
	assert.Empty(t, hits.Labels)
}

func TestIntersecting_SplitsKinds(t *testing.T) {
	rect := geometry.Rect{X: -10, Y: -10, Width: 400, Height: 400}
	hits := selection.Intersecting(rect, candidates())
	assert.Equal(t, []string{"t1", "t2"}, hits.Thumbnails.IDs())
	assert.Equal(t, []string{"l1"}, hits.Labels.IDs())
}

func TestApply_NoModifierReplaces(t *testing.T) {
	current := selection.NewSet("a", "b")
	assert.Equal(t, []string{"c"}, selection.Apply(current, selection.NewSet("c"), selection.ModifierNone).IDs())
	assert.Empty(t, selection.Apply(current, selection.NewSet(), selection.ModifierNone), "empty hits clear the selection")
	assert.Equal(t, []string{"a", "b"}, current.IDs(), "current must not be mutated")
}

func TestApply_ShiftIsSuperset(t *testing.T) {
	current := selection.NewSet("a", "b")
	out := selection.Apply(current, selection.NewSet("b", "c"), selection.ModifierShift)
	assert.Equal(t, []string{"a", "b", "c"}, out.IDs())
	for id := range current {
		assert.True(t, out.Has(id))
	}
}

func TestApply_ToggleFlipsMembership(t *testing.T) {
	current := selection.NewSet("a", "b")
	out := selection.Apply(current, selection.NewSet("b", "c"), selection.ModifierToggle)
	assert.Equal(t, []string{"a", "c"}, out.IDs())
}

func TestModifierFor(t *testing.T) {
	assert.Equal(t, selection.ModifierNone, selection.ModifierFor(false, false))
	assert.Equal(t, selection.ModifierShift, selection.ModifierFor(true, false))
	assert.Equal(t, selection.ModifierToggle, selection.ModifierFor(true, true))
}

func TestGesture_PreviewIsThrottled(t *testing.T) {
	now := time.Unix(0, 0)
	g := selection.NewGesture(func() time.Time { return now })
	items := candidates()

	g.Begin(geometry.Point{X: 500, Y: 500})
	assert.True(t, g.Update(geometry.Point{X: 250, Y: 10}, items))
	assert.Equal(t, []string{"t2"}, g.Preview().Thumbnails.IDs())

	now = now.Add(5 * time.Millisecond)
	assert.False(t, g.Update(geometry.Point{X: 10, Y: 10}, items), "within the frame budget")
	assert.Equal(t, []string{"t2"}, g.Preview().Thumbnails.IDs())

	now = now.Add(selection.PreviewInterval)
	assert.True(t, g.Update(geometry.Point{X: 10, Y: 10}, items))
	assert.Equal(t, []string{"t1", "t2"}, g.Preview().Thumbnails.IDs())
}

func TestGesture_CommitAndCancel(t *testing.T) {
	g := selection.NewGesture(nil)
	items := candidates()
	current := selection.Selection{Thumbnails: selection.NewSet("t2"), Labels: selection.NewSet()}

	g.Begin(geometry.Point{X: 50, Y: 50})
	sel := g.Commit(geometry.Point{X: 10, Y: 10}, items, current, selection.ModifierShift)
	assert.Equal(t, []string{"t1", "t2"}, sel.Thumbnails.IDs())
	assert.False(t, g.Active())

	g.Begin(geometry.Point{X: 0, Y: 0})
	g.Cancel()
	_, active := g.Rect()
	assert.False(t, active)
	assert.Equal(t, 0, g.Preview().Len())
}
