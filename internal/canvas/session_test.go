package canvas_test

import (
	"context"
	"errors"
	"testing"

	"thumbio/internal/canvas"
	"thumbio/internal/domain"
	"thumbio/internal/geometry"
	"thumbio/internal/tool"
	"thumbio/internal/viewport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type quotaGateMock struct{ mock.Mock }

func (m *quotaGateMock) Approve(ctx context.Context, units int64) (bool, error) {
	args := m.Called(ctx, units)
	return args.Bool(0), args.Error(1)
}

type cursorRecorder struct {
	sent   []geometry.Point
	leaves int
}

func (c *cursorRecorder) SendCursor(x, y float64) error {
	c.sent = append(c.sent, geometry.Point{X: x, Y: y})
	return nil
}

func (c *cursorRecorder) LeaveCursor() error {
	c.leaves++
	return nil
}

func ev(x, y float64) tool.PointerEvent {
	return tool.PointerEvent{Screen: geometry.Point{X: x, Y: y}}
}

func newSession(t *testing.T, opts canvas.Options) *canvas.Session {
	t.Helper()
	if opts.Thumbnails == nil {
		opts.Thumbnails = canvas.NewMemoryThumbnails(
			domain.Thumbnail{ID: "t1", X: 0, Y: 0},
			domain.Thumbnail{ID: "t2", X: 1000, Y: 0},
		)
	}
	return canvas.New(opts)
}

func drag(s *canvas.Session, points ...tool.PointerEvent) {
	s.PointerDown(points[0])
	for _, p := range points[1 : len(points)-1] {
		s.PointerMove(p)
	}
	s.PointerUp(points[len(points)-1])
}

func TestSession_RectangleSelection(t *testing.T) {
	s := newSession(t, canvas.Options{})
	drag(s, ev(400, 400), ev(200, 200), ev(100, 100))

	assert.Equal(t, []string{"t1"}, s.Selection().Thumbnails.IDs())
	assert.Equal(t, domain.Thumbnail{ID: "t1"}, s.Thumbnails()[0], "selection never moves items")
	assert.False(t, s.CanUndo(), "selection is not a document change")
}

func TestSession_ShiftRectangleExtendsSelection(t *testing.T) {
	s := newSession(t, canvas.Options{})
	drag(s, ev(400, 400), ev(100, 100))

	shift := tool.PointerEvent{Screen: geometry.Point{X: 1100, Y: 100}, Modifiers: tool.Modifiers{Shift: true}}
	drag(s, ev(900, 400), shift)
	assert.Equal(t, []string{"t1", "t2"}, s.Selection().Thumbnails.IDs())
}

func TestSession_DragMovesItemsAndUndoRestores(t *testing.T) {
	s := newSession(t, canvas.Options{})
	drag(s, ev(10, 10), ev(40, 20), ev(60, 30))

	assert.Equal(t, []string{"t1"}, s.Selection().Thumbnails.IDs())
	assert.Equal(t, geometry.Point{X: 50, Y: 20}, s.Thumbnails()[0].Position())

	require.True(t, s.Undo())
	assert.Equal(t, geometry.Point{}, s.Thumbnails()[0].Position())
	require.True(t, s.Redo())
	assert.Equal(t, geometry.Point{X: 50, Y: 20}, s.Thumbnails()[0].Position())
}

func TestSession_ModeChangeCancelsRectangle(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.PointerDown(ev(400, 400))
	s.PointerMove(ev(100, 100))
	_, _, ok := s.SelectionPreview()
	require.True(t, ok)

	s.SetMode(tool.ModeDrawing)
	_, _, ok = s.SelectionPreview()
	assert.False(t, ok)
	assert.False(t, s.ItemsInteractive())
	s.PointerUp(ev(100, 100))
	assert.Equal(t, 0, s.Selection().Len())
}

func TestSession_DrawCommitsSmoothedStroke(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.SetMode(tool.ModeDrawing)
	drag(s, ev(0, 0), ev(10, 0), ev(20, 5), ev(30, 0))

	drawings := s.Drawings()
	require.Len(t, drawings, 1)
	pts := drawings[0].Points
	assert.Equal(t, geometry.Point{X: 0, Y: 0}, pts[0])
	assert.Equal(t, geometry.Point{X: 30, Y: 0}, pts[len(pts)-1])

	require.True(t, s.Undo())
	assert.Empty(t, s.Drawings())
}

func TestSession_ClickInDrawingModeIsDiscarded(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.SetMode(tool.ModeDrawing)
	drag(s, ev(5, 5), ev(6, 5))
	assert.Empty(t, s.Drawings())
	assert.False(t, s.CanUndo())
}

func TestSession_SpacePanningPausesStroke(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.SetMode(tool.ModeDrawing)

	s.PointerDown(ev(0, 0))
	s.PointerMove(ev(10, 0))
	s.SetSpacePanning(true)
	s.PointerMove(ev(50, 0))
	s.SetSpacePanning(false)
	s.PointerMove(ev(60, 0))
	s.PointerUp(ev(80, 0))

	assert.Equal(t, tool.ModeDrawing, s.Mode())
	assert.Equal(t, 40.0, s.Viewport().Transform().X)
	drawings := s.Drawings()
	require.Len(t, drawings, 1)
	assert.Equal(t, geometry.Point{X: 40, Y: 0}, drawings[0].Points[len(drawings[0].Points)-1])
}

func TestSession_EraserBatchesOneHistoryEntry(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.SetMode(tool.ModeDrawing)
	drag(s, ev(0, 0), ev(10, 0), ev(20, 0))
	drag(s, ev(0, 100), ev(10, 100), ev(20, 100))
	drag(s, ev(500, 500), ev(510, 500), ev(520, 500))
	require.Len(t, s.Drawings(), 3)

	s.SetEraser(true)
	drag(s, ev(0, 0), ev(0, 50), ev(0, 100))
	drawings := s.Drawings()
	require.Len(t, drawings, 1)
	assert.Equal(t, 500.0, drawings[0].Points[0].X)

	require.True(t, s.Undo())
	assert.Len(t, s.Drawings(), 3, "one undo restores everything the gesture erased")
}

func TestSession_HandModePansViewportAndGrid(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.SetMode(tool.ModeHand)
	drag(s, ev(0, 0), ev(15, 5), ev(25, 10))

	assert.Equal(t, viewport.Transform{X: 25, Y: 10, Scale: 1}, s.Viewport().Transform())
	x, y := s.Grid().Offset()
	assert.InDelta(t, 5, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)
	assert.Equal(t, 0, s.Selection().Len())
}

func TestSession_PlacesCommentsAndLabels(t *testing.T) {
	s := newSession(t, canvas.Options{Author: "Quick Fox"})
	s.SetMode(tool.ModeComment)
	drag(s, ev(100, 100), ev(101, 101))
	comments := s.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "Quick Fox", comments[0].Author)
	require.NoError(t, s.EditComment(comments[0].ID, "tighten the title"))
	assert.Equal(t, "tighten the title", s.Comments()[0].Text)

	s.SetMode(tool.ModeLabel)
	drag(s, ev(300, 300), ev(300, 300))
	labels := s.Labels()
	require.Len(t, labels, 1)
	assert.Equal(t, []string{labels[0].ID}, s.Selection().Labels.IDs())
	require.NoError(t, s.EditLabel(labels[0].ID, "NEW"))
	assert.ErrorIs(t, s.EditLabel("missing", "x"), canvas.ErrItemNotFound)

	// A drag is not a click.
	drag(s, ev(0, 0), ev(50, 50))
	assert.Len(t, s.Labels(), 1)
}

func TestSession_ImportDeniedByQuotaLeavesCanvasUntouched(t *testing.T) {
	gate := new(quotaGateMock)
	gate.On("Approve", mock.Anything, int64(100)).Return(false, nil).Once()
	s := newSession(t, canvas.Options{Quota: gate})
	before := s.Document()

	err := s.ImportThumbnails(context.Background(), []domain.Thumbnail{{VideoID: "abc"}}, 100)
	assert.ErrorIs(t, err, canvas.ErrQuotaExceeded)
	assert.Equal(t, before, s.Document())
	assert.False(t, s.CanUndo())
	gate.AssertExpectations(t)
}

func TestSession_ImportApproved(t *testing.T) {
	gate := new(quotaGateMock)
	gate.On("Approve", mock.Anything, int64(1)).Return(true, nil).Once()
	s := newSession(t, canvas.Options{Quota: gate})

	require.NoError(t, s.ImportThumbnails(context.Background(), []domain.Thumbnail{{VideoID: "abc", X: 10, Y: 10}}, 1))
	thumbs := s.Thumbnails()
	require.Len(t, thumbs, 3)
	assert.NotEmpty(t, thumbs[2].ID)
	assert.True(t, s.CanUndo())
	gate.AssertExpectations(t)
}

func TestSession_ImportQuotaError(t *testing.T) {
	gate := new(quotaGateMock)
	boom := errors.New("redis down")
	gate.On("Approve", mock.Anything, int64(5)).Return(false, boom)
	s := newSession(t, canvas.Options{Quota: gate})

	err := s.ImportThumbnails(context.Background(), []domain.Thumbnail{{VideoID: "abc"}}, 5)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.Thumbnails(), 2)
}

func TestSession_PublishesCursorInCanvasSpace(t *testing.T) {
	rec := &cursorRecorder{}
	s := newSession(t, canvas.Options{Cursor: rec})
	s.Viewport().ZoomToPoint(geometry.Point{}, 2)

	s.PointerMove(ev(100, 50))
	s.PointerLeave()
	require.Len(t, rec.sent, 1)
	assert.Equal(t, geometry.Point{X: 50, Y: 25}, rec.sent[0])
	assert.Equal(t, 1, rec.leaves)
}

func TestSession_LoadResetsHistoryAndDeleteSelected(t *testing.T) {
	s := newSession(t, canvas.Options{})
	s.SetMode(tool.ModeDrawing)
	drag(s, ev(0, 0), ev(10, 0), ev(20, 0))
	require.True(t, s.CanUndo())

	s.Load(domain.CanvasDocument{
		Thumbnails: []domain.Thumbnail{{ID: "a"}, {ID: "b", X: 400}},
		Labels:     []domain.Label{{ID: "l", Text: "hi", X: 0, Y: 300}},
	})
	assert.False(t, s.CanUndo())
	assert.Empty(t, s.Drawings())

	s.SetMode(tool.ModeSelection)
	drag(s, ev(-10, -10), ev(100, 400))
	require.Equal(t, 2, s.Selection().Len())
	assert.Equal(t, 2, s.DeleteSelected())
	assert.Len(t, s.Thumbnails(), 1)
	assert.Empty(t, s.Labels())

	require.True(t, s.Undo())
	assert.Len(t, s.Thumbnails(), 2)
	assert.Len(t, s.Labels(), 1)
	assert.Equal(t, 0, s.Selection().Len())
}
