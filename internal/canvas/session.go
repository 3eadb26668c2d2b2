package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thumbio/internal/domain"
	"thumbio/internal/drawing"
	"thumbio/internal/geometry"
	"thumbio/internal/history"
	"thumbio/internal/selection"
	"thumbio/internal/tool"
	"thumbio/internal/viewport"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrItemNotFound  = errors.New("canvas item not found")
)

// Options are the collaborators of a Session. Thumbnails and Labels default to
// in-memory stores; Cursor and Quota are optional.
type Options struct {
	Thumbnails      ThumbnailStore
	Labels          LabelStore
	Cursor          CursorPublisher
	Quota           QuotaGate
	Author          string
	ScreenWidth     float64
	ScreenHeight    float64
	HistoryCapacity int
	Now             func() time.Time
}

// Session is the state of one open canvas. It is owned by a single goroutine
// (the UI loop) and is not safe for concurrent use.
type Session struct {
	thumbs   ThumbnailStore
	labels   LabelStore
	drawings []domain.Drawing
	comments []domain.Comment
	selected selection.Selection

	tools   *tool.Controller
	view    *viewport.Controller
	grid    *viewport.GridOverlay
	history *history.Stack[domain.CanvasDocument]

	cursor CursorPublisher
	quota  QuotaGate
	author string
	now    func() time.Time

	brush            domain.StrokeStyle
	eraser           bool
	layer            int
	itemsInteractive bool

	sel    *selectHandler
	draw   *drawHandler
	pan    *panHandler
	notes  *placeHandler
	labelH *placeHandler

	log *logrus.Entry
}

// New builds a session with an empty document in selection mode.
func New(opts Options) *Session {
	if opts.Thumbnails == nil {
		opts.Thumbnails = NewMemoryThumbnails()
	}
	if opts.Labels == nil {
		opts.Labels = NewMemoryLabels()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ScreenWidth <= 0 || opts.ScreenHeight <= 0 {
		opts.ScreenWidth, opts.ScreenHeight = 1280, 720
	}
	s := &Session{
		thumbs:   opts.Thumbnails,
		labels:   opts.Labels,
		selected: selection.Empty(),
		view:     viewport.NewController(opts.ScreenWidth, opts.ScreenHeight),
		grid:     viewport.NewGridOverlay(viewport.DefaultGridSpacing),
		cursor:   opts.Cursor,
		quota:    opts.Quota,
		author:   opts.Author,
		now:      opts.Now,
		brush:    drawing.DefaultStyle,
		log:      logrus.WithField("component", "canvas_session"),
	}
	s.view.Subscribe(s.grid)

	var histOpts []history.Option[domain.CanvasDocument]
	if opts.HistoryCapacity > 0 {
		histOpts = append(histOpts, history.WithCapacity[domain.CanvasDocument](opts.HistoryCapacity))
	}
	histOpts = append(histOpts, history.WithClock[domain.CanvasDocument](opts.Now))
	s.history = history.New(s.Document(), domain.CanvasDocument.Clone, histOpts...)

	s.sel = &selectHandler{s: s, gesture: selection.NewGesture(opts.Now)}
	s.draw = &drawHandler{s: s, stroke: drawing.NewStroke(opts.Now)}
	s.pan = &panHandler{s: s}
	s.notes = &placeHandler{s: s, place: s.addComment}
	s.labelH = &placeHandler{s: s, place: s.addLabel}

	s.tools = tool.NewController(map[tool.Mode]tool.InputHandler{
		tool.ModeSelection: s.sel,
		tool.ModeDrawing:   s.draw,
		tool.ModeComment:   s.notes,
		tool.ModeLabel:     s.labelH,
	}, s.pan, s)
	return s
}

// SetItemsInteractive implements tool.Interactivity.
func (s *Session) SetItemsInteractive(v bool) { s.itemsInteractive = v }

// ItemsInteractive reports whether thumbnails and labels capture the pointer.
func (s *Session) ItemsInteractive() bool { return s.itemsInteractive }

// SetMode switches the tool mode.
func (s *Session) SetMode(m tool.Mode) { s.tools.SetMode(m) }

// Mode is the persisted tool mode.
func (s *Session) Mode() tool.Mode { return s.tools.Mode() }

// SetSpacePanning holds or releases the space-bar pan override.
func (s *Session) SetSpacePanning(held bool) { s.tools.SetSpacePanning(held) }

// Behavior is the resolved behavior of the current mode.
func (s *Session) Behavior() tool.Behavior { return s.tools.Behavior() }

// OnBehaviorChange registers fn for resolved behavior changes.
func (s *Session) OnBehaviorChange(fn func(tool.Behavior)) { s.tools.OnBehaviorChange(fn) }

// PointerDown forwards a pointer press.
func (s *Session) PointerDown(ev tool.PointerEvent) { s.tools.PointerDown(ev) }

// PointerMove forwards pointer motion and publishes the cursor position.
func (s *Session) PointerMove(ev tool.PointerEvent) {
	s.tools.PointerMove(ev)
	if s.cursor == nil {
		return
	}
	w := s.view.ScreenToWorld(ev.Screen)
	if err := s.cursor.SendCursor(w.X, w.Y); err != nil {
		s.log.WithError(err).Debug("Canvas: cursor publish failed")
	}
}

// PointerUp forwards a pointer release.
func (s *Session) PointerUp(ev tool.PointerEvent) { s.tools.PointerUp(ev) }

// PointerLeave tells the presence relay the cursor left the canvas.
func (s *Session) PointerLeave() {
	if s.cursor == nil {
		return
	}
	if err := s.cursor.LeaveCursor(); err != nil {
		s.log.WithError(err).Debug("Canvas: cursor leave failed")
	}
}

// Viewport exposes the zoom controller.
func (s *Session) Viewport() *viewport.Controller { return s.view }

// Grid is the background grid kept aligned with the viewport.
func (s *Session) Grid() *viewport.GridOverlay { return s.grid }

// SetBrush changes the style of future strokes.
func (s *Session) SetBrush(style domain.StrokeStyle) {
	if style.Width <= 0 {
		style.Width = drawing.DefaultStyle.Width
	}
	if style.Alpha <= 0 || style.Alpha > 1 {
		style.Alpha = 1
	}
	s.brush = style
}

// Brush is the current stroke style.
func (s *Session) Brush() domain.StrokeStyle { return s.brush }

// SetEraser switches drawing mode between painting and erasing.
func (s *Session) SetEraser(on bool) { s.eraser = on }

// SetLayer sets the layer assigned to new strokes.
func (s *Session) SetLayer(layer int) { s.layer = layer }

// Thumbnails returns a copy of the thumbnails.
func (s *Session) Thumbnails() []domain.Thumbnail { return s.thumbs.Thumbnails() }

// Labels returns a copy of the labels.
func (s *Session) Labels() []domain.Label { return s.labels.Labels() }

// Drawings returns a copy of the finished strokes.
func (s *Session) Drawings() []domain.Drawing {
	return s.Document().Drawings
}

// Comments returns a copy of the comments.
func (s *Session) Comments() []domain.Comment {
	return append([]domain.Comment(nil), s.comments...)
}

// Selection returns a copy of the selected ids.
func (s *Session) Selection() selection.Selection { return s.selected.Clone() }

// SelectionPreview returns the rectangle being dragged and the ids it
// currently hits. ok is false when no rectangle is being dragged.
func (s *Session) SelectionPreview() (rect geometry.Rect, hits selection.Selection, ok bool) {
	rect, ok = s.sel.gesture.Rect()
	if !ok {
		return geometry.Rect{}, selection.Empty(), false
	}
	return rect, s.sel.gesture.Preview(), true
}

// StrokePreview returns the raw points of the stroke being drawn.
func (s *Session) StrokePreview() []geometry.Point { return s.draw.stroke.Preview() }

// Document snapshots everything the canvas shows.
func (s *Session) Document() domain.CanvasDocument {
	doc := domain.CanvasDocument{
		Thumbnails: s.thumbs.Thumbnails(),
		Labels:     s.labels.Labels(),
		Drawings:   s.drawings,
		Comments:   s.comments,
	}
	return doc.Clone()
}

// Load replaces the document and starts a fresh history.
func (s *Session) Load(doc domain.CanvasDocument) {
	s.tools.CancelGesture()
	s.apply(doc)
	s.selected = selection.Empty()
	s.history.Reset(s.Document())
}

// Undo restores the previous snapshot. It reports whether anything changed.
func (s *Session) Undo() bool {
	s.tools.CancelGesture()
	doc, ok := s.history.Undo()
	if ok {
		s.apply(doc)
	}
	return ok
}

// Redo reapplies the next snapshot. It reports whether anything changed.
func (s *Session) Redo() bool {
	s.tools.CancelGesture()
	doc, ok := s.history.Redo()
	if ok {
		s.apply(doc)
	}
	return ok
}

// CanUndo reports whether there is something to undo.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether there is something to redo.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// ImportThumbnails adds items after the quota gate approves cost units. A
// denial leaves the canvas untouched and returns ErrQuotaExceeded.
func (s *Session) ImportThumbnails(ctx context.Context, items []domain.Thumbnail, cost int64) error {
	logCtx := s.log.WithFields(logrus.Fields{"count": len(items), "cost": cost})
	if s.quota != nil {
		ok, err := s.quota.Approve(ctx, cost)
		if err != nil {
			logCtx.WithError(err).Error("Canvas: quota check failed")
			return fmt.Errorf("quota check: %w", err)
		}
		if !ok {
			logCtx.Warn("Canvas: import denied by quota")
			return ErrQuotaExceeded
		}
	}
	current := s.thumbs.Thumbnails()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		current = append(current, it)
	}
	s.thumbs.SetThumbnails(current)
	s.record("import thumbnails")
	logCtx.Info("Canvas: thumbnails imported")
	return nil
}

// DeleteSelected removes every selected thumbnail and label.
func (s *Session) DeleteSelected() int {
	if s.selected.Len() == 0 {
		return 0
	}
	n := 0
	thumbs := s.thumbs.Thumbnails()
	keptThumbs := thumbs[:0]
	for _, t := range thumbs {
		if s.selected.Thumbnails.Has(t.ID) {
			n++
			continue
		}
		keptThumbs = append(keptThumbs, t)
	}
	labels := s.labels.Labels()
	keptLabels := labels[:0]
	for _, l := range labels {
		if s.selected.Labels.Has(l.ID) {
			n++
			continue
		}
		keptLabels = append(keptLabels, l)
	}
	s.thumbs.SetThumbnails(keptThumbs)
	s.labels.SetLabels(keptLabels)
	s.selected = selection.Empty()
	s.record("delete")
	return n
}

// EditLabel replaces a label's text.
func (s *Session) EditLabel(id, text string) error {
	labels := s.labels.Labels()
	for i := range labels {
		if labels[i].ID == id {
			labels[i].Text = text
			labels[i].Width, labels[i].Height = 0, 0
			s.labels.SetLabels(labels)
			s.record("edit label")
			return nil
		}
	}
	return ErrItemNotFound
}

// EditComment replaces a comment's text.
func (s *Session) EditComment(id, text string) error {
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Text = text
			s.record("edit comment")
			return nil
		}
	}
	return ErrItemNotFound
}

func (s *Session) addComment(at geometry.Point) {
	s.comments = append(s.comments, domain.Comment{
		ID:        uuid.NewString(),
		X:         at.X,
		Y:         at.Y,
		Author:    s.author,
		CreatedAt: s.now(),
	})
	s.record("add comment")
}

func (s *Session) addLabel(at geometry.Point) {
	label := domain.Label{
		ID:       uuid.NewString(),
		Text:     "Text",
		X:        at.X,
		Y:        at.Y,
		FontSize: domain.DefaultLabelFontSize,
		Color:    "#ffffff",
	}
	s.labels.SetLabels(append(s.labels.Labels(), label))
	s.selected = selection.Selection{Thumbnails: selection.NewSet(), Labels: selection.NewSet(label.ID)}
	s.record("add label")
}

func (s *Session) record(label string) {
	s.history.Record(label, s.Document())
	s.log.WithField("action", label).Debug("Canvas: history recorded")
}

// apply installs doc wholesale and drops selected ids that no longer exist.
func (s *Session) apply(doc domain.CanvasDocument) {
	doc = doc.Clone()
	s.thumbs.SetThumbnails(doc.Thumbnails)
	s.labels.SetLabels(doc.Labels)
	s.drawings = doc.Drawings
	s.comments = doc.Comments

	kept := selection.Empty()
	for _, t := range doc.Thumbnails {
		if s.selected.Thumbnails.Has(t.ID) {
			kept.Thumbnails[t.ID] = struct{}{}
		}
	}
	for _, l := range doc.Labels {
		if s.selected.Labels.Has(l.ID) {
			kept.Labels[l.ID] = struct{}{}
		}
	}
	s.selected = kept
}

// candidates lists every selectable item in canvas space.
func (s *Session) candidates() []selection.Candidate {
	thumbs := s.thumbs.Thumbnails()
	labels := s.labels.Labels()
	out := make([]selection.Candidate, 0, len(thumbs)+len(labels))
	for _, t := range thumbs {
		out = append(out, selection.Candidate{ID: t.ID, Kind: selection.KindThumbnail, Bounds: t.Bounds()})
	}
	for _, l := range labels {
		out = append(out, selection.Candidate{ID: l.ID, Kind: selection.KindLabel, Bounds: l.Bounds()})
	}
	return out
}

// itemAt returns the topmost item under p. Labels sit above thumbnails.
func (s *Session) itemAt(p geometry.Point) (selection.Candidate, bool) {
	labels := s.labels.Labels()
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i].Bounds().Normalize().Contains(p) {
			return selection.Candidate{ID: labels[i].ID, Kind: selection.KindLabel, Bounds: labels[i].Bounds()}, true
		}
	}
	thumbs := s.thumbs.Thumbnails()
	for i := len(thumbs) - 1; i >= 0; i-- {
		if thumbs[i].Bounds().Normalize().Contains(p) {
			return selection.Candidate{ID: thumbs[i].ID, Kind: selection.KindThumbnail, Bounds: thumbs[i].Bounds()}, true
		}
	}
	return selection.Candidate{}, false
}
